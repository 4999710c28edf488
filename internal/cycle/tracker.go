package cycle

import (
	"liftlog/internal/database"
)

// Progress describes where the user stands in their programme's
// rotation, derived entirely from completed-workout history. Nothing
// about laps is ever stored: deleting a workout simply changes what
// the next derivation sees.
type Progress struct {
	// Completed holds the template ids done so far in the lap
	// currently being built toward
	Completed map[int64]bool
	// Total is the number of templates in the rotation
	Total int
	// CycleComplete reports whether the current lap set covers the
	// whole rotation
	CycleComplete bool
	// CycleCount is the number of fully closed laps found walking
	// back from the most recent workout
	CycleCount int
}

// InFreshLap reports whether the rotation was closed and the template
// has not yet been repeated in the lap that follows. A closed lap is
// only visible here while the workouts since it contain no repeats:
// the backward walk stops at the first repeated template, so a redo
// hides older laps.
func (p *Progress) InFreshLap(templateID int64) bool {
	return p != nil && p.CycleCount > 0 && !p.Completed[templateID]
}

// Calculate derives the current rotation progress for a programme.
//
// The walk runs from the most recent completed workout backward,
// accumulating template ids into the current lap:
//   - a template already in the lap marks the boundary of the previous
//     lap, and the walk stops;
//   - a lap that grows to cover every template in the rotation is a
//     closed lap: it is counted and the lap set resets, with the next
//     (older) workout starting the lap before it.
//
// Walking backward means only the most recent occurrence of each
// template is credited, so repeating a workout mid-lap never counts
// as extra progress.
func Calculate(db *database.DB, userID, programmeID int64) (*Progress, error) {
	templates, err := db.TemplatesForProgramme(programmeID)
	if err != nil {
		return nil, err
	}

	progress := &Progress{Completed: make(map[int64]bool), Total: len(templates)}
	if len(templates) == 0 {
		return progress, nil
	}

	templateIDs := make([]int64, len(templates))
	for i, t := range templates {
		templateIDs[i] = t.ID
	}

	workouts, err := db.CompletedWorkoutsForTemplates(userID, templateIDs)
	if err != nil {
		return nil, err
	}

	lap := make(map[int64]bool)
	for _, w := range workouts {
		if w.TemplateID == nil {
			continue
		}
		id := *w.TemplateID

		if lap[id] {
			// Boundary of the previous lap: everything older belongs
			// to earlier laps we cannot attribute
			break
		}
		lap[id] = true

		if len(lap) == progress.Total {
			progress.CycleCount++
			lap = make(map[int64]bool)
		}
	}

	progress.Completed = lap
	progress.CycleComplete = progress.Total > 0 && len(lap) == progress.Total
	return progress, nil
}
