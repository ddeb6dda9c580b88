package experiment

import (
	"context"
	"errors"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"ap-task/design"
)

// KindCollaborator tags failures of the audio or UI surface. They end the session.
const KindCollaborator ftag.Kind = "COLLABORATOR_UNAVAILABLE"

// collaboratorErr wraps a surface failure. A failure caused by ctx ending
// is tagged Cancelled instead.
func collaboratorErr(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return fault.Wrap(err, fmsg.With(msg), ftag.With(ftag.Cancelled))
	}
	return fault.Wrap(err, fmsg.With(msg), ftag.With(KindCollaborator))
}

// FatalMessage is the text shown to the participant when err ends the session
func FatalMessage(err error) string {
	var lines []string
	switch ftag.Get(err) {
	case KindCollaborator:
		lines = append(lines, "The audio or display device could not be used, so the session cannot continue.")
	case design.KindUnsatisfiable:
		lines = append(lines, "The trials for this session could not be generated with the configured constraints.")
	case ftag.Cancelled:
		lines = append(lines, "The session was stopped before it finished.")
	default:
		lines = append(lines, "An unexpected error ended the session.")
	}
	if issue := fmsg.GetIssue(err); issue != "" {
		lines = append(lines, issue)
	}
	lines = append(lines, "No results were saved. Please contact the coordinator of the study.")
	return strings.Join(lines, "\n")
}
