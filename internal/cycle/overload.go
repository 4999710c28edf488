package cycle

import (
	"liftlog/internal/database"
)

// SetSuggestion is the weight and reps to pre-fill for one set
// position when a session starts
type SetSuggestion struct {
	Weight float64
	Reps   int
}

// ResolveTemplate computes the suggestions for every exercise in the
// template, in template order. When the template belongs to a
// programme, rotation progress is derived once and shared across the
// exercises.
func ResolveTemplate(db *database.DB, userID int64, tmpl *database.Template) ([][]SetSuggestion, error) {
	var progress *Progress
	if tmpl.ProgrammeID != nil {
		var err error
		progress, err = Calculate(db, userID, *tmpl.ProgrammeID)
		if err != nil {
			return nil, err
		}
	}

	suggestions := make([][]SetSuggestion, len(tmpl.Exercises))
	for i, ex := range tmpl.Exercises {
		s, err := ResolveExercise(db, userID, tmpl.ID, ex, progress)
		if err != nil {
			return nil, err
		}
		suggestions[i] = s
	}
	return suggestions, nil
}

// ResolveExercise decides the weight/reps to pre-fill for each set of
// one exercise. The rule is deliberately not a rolling average or any
// statistical estimator: gym convention expects a deterministic
// "repeat last performance, bump on lap completion" suggestion.
//
// Priority order:
//  1. rotation just closed and this template not yet done in the new
//     lap: most recent actuals plus the configured increment;
//  2. history exists: most recent actuals by set position, template
//     targets beyond what history covered;
//  3. no history: template targets throughout.
func ResolveExercise(db *database.DB, userID, templateID int64, ex database.TemplateExercise, progress *Progress) ([]SetSuggestion, error) {
	history, err := db.LastPerformance(userID, ex.Exercise)
	if err != nil {
		return nil, err
	}

	suggestions := make([]SetSuggestion, len(ex.TargetSets))
	for pos, target := range ex.TargetSets {
		if pos < len(history) {
			suggestions[pos] = SetSuggestion{Weight: history[pos].Weight, Reps: history[pos].Reps}
		} else {
			suggestions[pos] = SetSuggestion{Weight: target.Weight, Reps: target.Reps}
		}
	}

	if len(history) > 0 && progress.InFreshLap(templateID) {
		// The increment applies on top of actuals; positions that
		// fell back to targets have nothing to progress from
		for pos := range suggestions {
			if pos < len(history) {
				suggestions[pos].Weight += ex.WeightIncrement
			}
		}
	}

	return suggestions, nil
}
