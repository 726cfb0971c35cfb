// Package results projects session state into stable, display-ready tables.
// The projection is pure: column layout comes from the session sequence, so it
// never shifts as captures land, and rows come from the roster, so every
// athlete appears whether or not they have a single time.
package results

import (
	"fmt"
	"sort"
	"strings"

	"github.com/claude/trackline/internal/models"
	"github.com/claude/trackline/internal/timefmt"
)

// Column is one (block, rep) slot of the result table.
type Column struct {
	BlockID  string `json:"blockId"`
	Header   string `json:"header"`
	RepIndex int    `json:"repIndex"`
}

// Row is one athlete's times across every column. Cells align with
// Table.Columns by index; nil means not captured.
type Row struct {
	AthleteID string               `json:"athleteId"`
	Name      string               `json:"name"`
	GroupID   models.GroupID       `json:"groupId"`
	Cells     []*models.ResultCell `json:"cells"`
}

// Table is the stable result matrix for one session.
type Table struct {
	SessionID   string   `json:"sessionId"`
	SessionName string   `json:"sessionName"`
	Columns     []Column `json:"columns"`
	Rows        []Row    `json:"rows"`
}

// Project builds the result table for a session. Columns are one per rep of
// every block in sequence order, including blocks nobody has reached yet.
// Rows are the active roster sorted by group, then last name, then first name
// (case-insensitive, ties keep roster order).
func Project(s *models.LiveSession) Table {
	t := Table{SessionID: s.ID, SessionName: s.Name}

	for i := range s.Sequence {
		it := &s.Sequence[i]
		if it.Type != models.ItemBlock {
			continue
		}
		for rep := 0; rep < it.Reps; rep++ {
			t.Columns = append(t.Columns, Column{
				BlockID:  it.ID,
				Header:   fmt.Sprintf("%s - %dm R%d", it.Label, it.DistanceM, rep+1),
				RepIndex: rep,
			})
		}
	}

	byID := map[string]*models.BlockResultMatrix{}
	for _, m := range s.Results.Matrices {
		byID[m.BlockID] = m
	}

	var roster []models.AthleteSnapshot
	for _, a := range s.Roster {
		if a.Active {
			roster = append(roster, a)
		}
	}
	sort.SliceStable(roster, func(i, j int) bool {
		a, b := roster[i], roster[j]
		if a.GroupID != b.GroupID {
			return groupRank(a.GroupID) < groupRank(b.GroupID)
		}
		if ln := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); ln != 0 {
			return ln < 0
		}
		return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
	})

	for _, a := range roster {
		row := Row{
			AthleteID: a.ID,
			Name:      a.DisplayName(),
			GroupID:   a.GroupID,
			Cells:     make([]*models.ResultCell, len(t.Columns)),
		}
		for ci, col := range t.Columns {
			if m := byID[col.BlockID]; m != nil {
				row.Cells[ci] = cellForAthlete(m, a.ID, col.RepIndex)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// cellForAthlete finds the athlete's cell regardless of which group it was
// captured under. Group reassignment mid-session must not hide times already
// on the board.
func cellForAthlete(m *models.BlockResultMatrix, athleteID string, rep int) *models.ResultCell {
	for gid := range m.Data {
		if cell := m.Cell(gid, athleteID, rep); cell != nil {
			return cell
		}
	}
	return nil
}

func groupRank(gid models.GroupID) int {
	for i, g := range models.GroupOrder {
		if g == gid {
			return i
		}
	}
	return len(models.GroupOrder) // "All" sorts last
}

// TSV renders the table as tab-separated text for spreadsheet import. Times
// are formatted M:SS.T; uncaptured cells are left empty.
func (t Table) TSV() string {
	var b strings.Builder
	b.WriteString("Athlete\tGroup")
	for _, col := range t.Columns {
		b.WriteByte('\t')
		b.WriteString(col.Header)
	}
	b.WriteByte('\n')

	for _, row := range t.Rows {
		b.WriteString(row.Name)
		b.WriteByte('\t')
		b.WriteString(string(row.GroupID))
		for _, cell := range row.Cells {
			b.WriteByte('\t')
			if cell != nil {
				b.WriteString(timefmt.FormatSeconds(cell.TimeSeconds))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Audit returns the session's capture log, most recent first.
func Audit(s *models.LiveSession) []models.ResultEntry {
	out := make([]models.ResultEntry, len(s.Results.Log))
	for i, e := range s.Results.Log {
		out[len(out)-1-i] = e
	}
	return out
}
