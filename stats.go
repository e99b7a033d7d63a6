package optifa

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Stats counts the work of one exploration.
type Stats struct {
	Checked       int // pairs popped from the worklist
	Processed     int // pairs passed through the filters
	Satisfiable   int
	Unsatisfiable int
	Skipped       int // pairs accepted as the single successor of their parent

	LengthSat     int
	LengthUnsat   int
	ParikhSat     int
	ParikhUnsat   int
	ParikhTrivial int
	Unknown       int // queries the solver could not decide

	SolverChecks int
	Minterms     int
	Reached      int
	Final        int
}

var csvHeader = []string{
	"checked", "processed", "satisfiable", "unsatisfiable", "skipped",
	"length_sat", "length_unsat", "parikh_sat", "parikh_unsat", "parikh_trivial",
	"unknown", "solver_checks", "minterms", "reached", "final",
}

func (s Stats) record() []string {
	values := []int{
		s.Checked, s.Processed, s.Satisfiable, s.Unsatisfiable, s.Skipped,
		s.LengthSat, s.LengthUnsat, s.ParikhSat, s.ParikhUnsat, s.ParikhTrivial,
		s.Unknown, s.SolverChecks, s.Minterms, s.Reached, s.Final,
	}
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = strconv.Itoa(v)
	}
	return record
}

// WriteCSV writes s as one CSV record, preceded by a header record when header is set.
func (s Stats) WriteCSV(w io.Writer, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := cw.Write(s.record()); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
