package smt

import (
	"math/big"
	"slices"
)

// bound is a lower or upper bound on a tableau variable together with the atom that asserted it;
// atom is -1 for bounds introduced by branch and bound.
type bound struct {
	val  *big.Rat
	atom int
}

// tableau is a general simplex over exact rationals. Columns 0..numOrig-1 are problem variables,
// the remaining columns are slacks, one per multi-variable linear form.
type tableau struct {
	numOrig int
	lo, hi  []*bound
	value   []*big.Rat

	// rows[b] expresses basic variable b over nonbasic ones; nil for nonbasic variables.
	rows []map[int]*big.Rat

	pivots int
}

func newTableau(numOrig int) *tableau {
	t := &tableau{numOrig: numOrig}
	for i := 0; i < numOrig; i++ {
		t.addColumn(nil)
	}
	return t
}

func (t *tableau) addColumn(row map[int]*big.Rat) int {
	t.lo = append(t.lo, nil)
	t.hi = append(t.hi, nil)
	t.value = append(t.value, new(big.Rat))
	t.rows = append(t.rows, row)
	return len(t.rows) - 1
}

// addSlack adds a basic variable equal to sum(coefs[i] * cols[i]) over nonbasic problem variables.
func (t *tableau) addSlack(cols []int, coefs []int64) int {
	row := make(map[int]*big.Rat, len(cols))
	for i, c := range cols {
		row[c] = new(big.Rat).SetInt64(coefs[i])
	}
	s := t.addColumn(row)
	t.value[s] = t.rowValue(row)
	return s
}

func (t *tableau) rowValue(row map[int]*big.Rat) *big.Rat {
	v := new(big.Rat)
	tmp := new(big.Rat)
	for c, a := range row {
		v.Add(v, tmp.Mul(a, t.value[c]))
	}
	return v
}

// assertLower tightens the lower bound of x. It reports the atoms of a contradicting upper bound.
func (t *tableau) assertLower(x int, val *big.Rat, atom int) (bool, []int) {
	if t.lo[x] != nil && t.lo[x].val.Cmp(val) >= 0 {
		return true, nil
	}
	if t.hi[x] != nil && t.hi[x].val.Cmp(val) < 0 {
		return false, []int{t.hi[x].atom, atom}
	}
	t.lo[x] = &bound{val: val, atom: atom}
	if t.rows[x] == nil && t.value[x].Cmp(val) < 0 {
		t.update(x, val)
	}
	return true, nil
}

// assertUpper tightens the upper bound of x. It reports the atoms of a contradicting lower bound.
func (t *tableau) assertUpper(x int, val *big.Rat, atom int) (bool, []int) {
	if t.hi[x] != nil && t.hi[x].val.Cmp(val) <= 0 {
		return true, nil
	}
	if t.lo[x] != nil && t.lo[x].val.Cmp(val) > 0 {
		return false, []int{t.lo[x].atom, atom}
	}
	t.hi[x] = &bound{val: val, atom: atom}
	if t.rows[x] == nil && t.value[x].Cmp(val) > 0 {
		t.update(x, val)
	}
	return true, nil
}

// update moves nonbasic x to v, adjusting every basic variable.
func (t *tableau) update(x int, v *big.Rat) {
	delta := new(big.Rat).Sub(v, t.value[x])
	tmp := new(big.Rat)
	for b, row := range t.rows {
		if a, ok := row[x]; ok {
			t.value[b].Add(t.value[b], tmp.Mul(a, delta))
		}
	}
	t.value[x] = new(big.Rat).Set(v)
}

// pivotAndUpdate sets basic b to v by moving nonbasic n, then swaps their roles.
func (t *tableau) pivotAndUpdate(b, n int, v *big.Rat) {
	a := t.rows[b][n]
	theta := new(big.Rat).Sub(v, t.value[b])
	theta.Quo(theta, a)

	t.value[b] = new(big.Rat).Set(v)
	t.value[n] = new(big.Rat).Add(t.value[n], theta)
	tmp := new(big.Rat)
	for k, row := range t.rows {
		if k == b || row == nil {
			continue
		}
		if c, ok := row[n]; ok {
			t.value[k].Add(t.value[k], tmp.Mul(c, theta))
		}
	}
	t.pivot(b, n)
}

// pivot makes n basic and b nonbasic.
func (t *tableau) pivot(b, n int) {
	t.pivots++
	rowB := t.rows[b]
	a := rowB[n]

	// n = (b - sum_{j != n} a_j x_j) / a
	inv := new(big.Rat).Inv(a)
	rowN := make(map[int]*big.Rat, len(rowB))
	rowN[b] = inv
	for j, c := range rowB {
		if j == n {
			continue
		}
		rowN[j] = new(big.Rat).Neg(new(big.Rat).Mul(c, inv))
	}
	t.rows[b] = nil
	t.rows[n] = rowN

	for k, row := range t.rows {
		if k == n || row == nil {
			continue
		}
		c, ok := row[n]
		if !ok {
			continue
		}
		delete(row, n)
		for j, d := range rowN {
			add := new(big.Rat).Mul(c, d)
			if cur, ok := row[j]; ok {
				cur.Add(cur, add)
				if cur.Sign() == 0 {
					delete(row, j)
				}
			} else {
				row[j] = add
			}
		}
	}
}

func sortedColumns(row map[int]*big.Rat) []int {
	cols := make([]int, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

// check restores feasibility of the rational relaxation using Bland's rule. On infeasibility it
// returns the atoms of the bounds that explain the conflict.
func (t *tableau) check() (bool, []int) {
	for {
		b := -1
		below := false
		for x, row := range t.rows {
			if row == nil {
				continue
			}
			if t.lo[x] != nil && t.value[x].Cmp(t.lo[x].val) < 0 {
				b, below = x, true
				break
			}
			if t.hi[x] != nil && t.value[x].Cmp(t.hi[x].val) > 0 {
				b, below = x, false
				break
			}
		}
		if b < 0 {
			return true, nil
		}

		row := t.rows[b]
		cols := sortedColumns(row)
		n := -1
		for _, j := range cols {
			positive := row[j].Sign() > 0
			canIncrease := t.hi[j] == nil || t.value[j].Cmp(t.hi[j].val) < 0
			canDecrease := t.lo[j] == nil || t.value[j].Cmp(t.lo[j].val) > 0
			if below && (positive && canIncrease || !positive && canDecrease) ||
				!below && (positive && canDecrease || !positive && canIncrease) {
				n = j
				break
			}
		}

		if n < 0 {
			var core []int
			if below {
				core = append(core, t.lo[b].atom)
			} else {
				core = append(core, t.hi[b].atom)
			}
			for _, j := range cols {
				positive := row[j].Sign() > 0
				if below == positive {
					core = append(core, t.hi[j].atom)
				} else {
					core = append(core, t.lo[j].atom)
				}
			}
			return false, core
		}

		if below {
			t.pivotAndUpdate(b, n, t.lo[b].val)
		} else {
			t.pivotAndUpdate(b, n, t.hi[b].val)
		}
	}
}

// fractional returns the first problem variable with a non-integral value, or -1.
func (t *tableau) fractional() int {
	for x := 0; x < t.numOrig; x++ {
		if !t.value[x].IsInt() {
			return x
		}
	}
	return -1
}

type branchResult int

const (
	branchSat branchResult = iota
	branchUnsat
	branchUnknown
)

// branchAndBound searches for an integral solution. The conflict core is only meaningful when the
// rational relaxation itself is infeasible at the root; infeasibility found deeper in the search is
// reported with a nil core.
func (t *tableau) branchAndBound(nodes *int, maxNodes int, deadline func() bool) (branchResult, []int) {
	ok, core := t.check()
	if !ok {
		return branchUnsat, core
	}
	x := t.fractional()
	if x < 0 {
		return branchSat, nil
	}
	*nodes++
	if *nodes > maxNodes || deadline() {
		return branchUnknown, nil
	}

	floor := new(big.Rat).SetInt(floorRat(t.value[x]))
	ceil := new(big.Rat).Add(floor, big.NewRat(1, 1))
	savedLo, savedHi := t.lo[x], t.hi[x]
	unknown := false

	if ok, _ := t.assertUpper(x, floor, -1); ok {
		switch res, _ := t.branchAndBound(nodes, maxNodes, deadline); res {
		case branchSat:
			return branchSat, nil
		case branchUnknown:
			unknown = true
		}
	}
	t.lo[x], t.hi[x] = savedLo, savedHi

	if ok, _ := t.assertLower(x, ceil, -1); ok {
		switch res, _ := t.branchAndBound(nodes, maxNodes, deadline); res {
		case branchSat:
			return branchSat, nil
		case branchUnknown:
			unknown = true
		}
	}
	t.lo[x], t.hi[x] = savedLo, savedHi

	if unknown {
		return branchUnknown, nil
	}
	return branchUnsat, nil
}

func floorRat(r *big.Rat) *big.Int {
	q, _ := new(big.Int).DivMod(r.Num(), r.Denom(), new(big.Int))
	return q
}
