// Package math 提供期权定价所需的概率分布函数：一元标准正态分布与二元正态累积分布（CBND）。
package math

import (
	"gonum.org/v1/gonum/stat/distuv"
)

var unitNormal = distuv.UnitNormal

// NormCDF 标准正态累积分布函数 N(x)。
func NormCDF(x float64) float64 {
	return unitNormal.CDF(x)
}

// NormPDF 标准正态密度函数 φ(x)。
func NormPDF(x float64) float64 {
	return unitNormal.Prob(x)
}
