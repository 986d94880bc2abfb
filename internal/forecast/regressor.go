package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Regressor 可替换的回归模型
type Regressor interface {
	Fit(features [][]float64, target []float64) error
	Predict(features [][]float64) ([]float64, error)
}

// ErrNotFitted 模型尚未训练
var ErrNotFitted = errors.New("regressor is not fitted")

// LinearRegressor 带截距的岭回归
// 用 SVD 求最小范数最小二乘解，常数列或共线列不会导致求解失败
type LinearRegressor struct {
	Ridge float64

	coef []float64 // coef[0] 为截距
}

// rankTolerance 相对最大奇异值，低于该比例的奇异值视为 0
const rankTolerance = 1e-10

// NewLinearRegressor 创建线性回归模型
func NewLinearRegressor(ridge float64) *LinearRegressor {
	return &LinearRegressor{Ridge: ridge}
}

// Fit 最小化 ||Xβ - y||² + λ||β[1:]||²，截距不做正则
// 岭项以 sqrt(λ)·I 追加行的方式并入设计矩阵
func (r *LinearRegressor) Fit(features [][]float64, target []float64) error {
	n := len(features)
	if n == 0 || n != len(target) {
		return fmt.Errorf("invalid training set: %d rows, %d targets", n, len(target))
	}
	if r.Ridge < 0 {
		return fmt.Errorf("invalid ridge: %g", r.Ridge)
	}
	p := len(features[0]) + 1

	rows := n
	if r.Ridge > 0 {
		rows += p - 1
	}
	design := mat.NewDense(rows, p, nil)
	y := mat.NewVecDense(rows, nil)
	for i, row := range features {
		if len(row) != p-1 {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), p-1)
		}
		design.Set(i, 0, 1)
		for j, x := range row {
			design.Set(i, j+1, x)
		}
		y.SetVec(i, target[i])
	}
	if r.Ridge > 0 {
		penalty := math.Sqrt(r.Ridge)
		for j := 1; j < p; j++ {
			design.Set(n+j-1, j, penalty)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return errors.New("failed to factorize design matrix")
	}
	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		return errors.New("design matrix has rank 0")
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)

	coef := make([]float64, p)
	for j := 0; j < p; j++ {
		v := beta.AtVec(j)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coefficient at %d", j)
		}
		coef[j] = v
	}
	r.coef = coef
	return nil
}

// Predict 对每行特征给出预测值
func (r *LinearRegressor) Predict(features [][]float64) ([]float64, error) {
	if r.coef == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(features))
	for i, row := range features {
		if len(row) != len(r.coef)-1 {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), len(r.coef)-1)
		}
		v := r.coef[0]
		for j, x := range row {
			v += r.coef[j+1] * x
		}
		out[i] = v
	}
	return out, nil
}

// Coefficients 返回 [截距, 系数...]
func (r *LinearRegressor) Coefficients() []float64 {
	return append([]float64(nil), r.coef...)
}
