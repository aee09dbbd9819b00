package math

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// gaussLegendre 保存 [-1, 1] 上的 Gauss-Legendre 节点与权重。
type gaussLegendre struct {
	x, w []float64
}

func newGaussLegendre(n int) gaussLegendre {
	g := gaussLegendre{x: make([]float64, n), w: make([]float64, n)}
	quad.Legendre{}.FixedLocations(g.x, g.w, -1, 1)
	return g
}

// 按 |rho| 分段选用 6 / 12 / 20 点积分规则，初始化后只读。
var (
	gl6  = newGaussLegendre(6)
	gl12 = newGaussLegendre(12)
	gl20 = newGaussLegendre(20)
)

const twoPi = 2 * math.Pi

// CBND 二元标准正态累积分布 P(X <= a, Y <= b)，X、Y 相关系数为 rho。
// 采用 Genz (2004) 的 BVN 算法，绝对误差约 1e-15。
func CBND(a, b, rho float64) float64 {
	return bvnUpper(-a, -b, rho)
}

// bvnUpper 计算上尾概率 P(X > h, Y > k)。
func bvnUpper(h, k, r float64) float64 {
	if r == 0 {
		return NormCDF(-h) * NormCDF(-k)
	}

	var g gaussLegendre
	switch ar := math.Abs(r); {
	case ar < 0.3:
		g = gl6
	case ar < 0.75:
		g = gl12
	default:
		g = gl20
	}

	hk := h * k

	if math.Abs(r) < 0.925 {
		hs := (h*h + k*k) / 2
		asr := math.Asin(r)
		var bvn float64
		for i, x := range g.x {
			sn := math.Sin(asr * (x + 1) / 2)
			bvn += g.w[i] * math.Exp((sn*hk-hs)/(1-sn*sn))
		}
		return bvn*asr/(2*twoPi) + NormCDF(-h)*NormCDF(-k)
	}

	// |r| >= 0.925：对 sqrt(1-r^2) 做展开后再积分剩余项。
	if r < 0 {
		k = -k
		hk = -hk
	}

	var bvn float64
	if math.Abs(r) < 1 {
		as := (1 - r) * (1 + r)
		a := math.Sqrt(as)
		bs := (h - k) * (h - k)
		c := (4 - hk) / 8
		d := (12 - hk) / 16

		bvn = a * math.Exp(-(bs/as+hk)/2) * (1 - c*(bs-as)*(1-d*bs/5)/3 + c*d*as*as/5)
		if hk > -160 {
			b := math.Sqrt(bs)
			bvn -= math.Exp(-hk/2) * math.Sqrt(twoPi) * NormCDF(-b/a) * b * (1 - c*bs*(1-d*bs/5)/3)
		}

		a /= 2
		for i, x := range g.x {
			xs := a * (x + 1)
			xs *= xs
			rs := math.Sqrt(1 - xs)
			asr := -(bs/xs + hk) / 2
			if asr > -100 {
				bvn += a * g.w[i] * math.Exp(asr) *
					(math.Exp(-hk*xs/(2*(1+rs)*(1+rs)))/rs - (1 + c*xs*(1+d*xs)))
			}
		}
		bvn = -bvn / twoPi
	}

	if r > 0 {
		return bvn + NormCDF(-math.Max(h, k))
	}
	return -bvn + math.Max(0, NormCDF(-h)-NormCDF(-k))
}
