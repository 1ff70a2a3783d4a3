package main

import (
	"errors"
	"fmt"

	"github.com/chen893/radar"
)

// report prints err and, for classified task failures, what the user can
// do about it. It returns err.
func report(deps *Dependencies, err error) error {
	var te *radar.TaskError
	if !errors.As(err, &te) {
		fmt.Fprintf(deps.Stderr, "error: %s\n", radar.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stderr, "error: %s (%s)\n", te.Message, te.Code)
	switch te.Action {
	case radar.ActionSettings:
		fmt.Fprintln(deps.Stderr, "Hint: run 'radar settings set --provider gemini --api-key KEY', or set GEMINI_API_KEY")
	case radar.ActionCleanup:
		fmt.Fprintln(deps.Stderr, "Hint: free space with 'radar extractions delete ID' or 'radar clear --force'")
	case radar.ActionRetry:
		fmt.Fprintln(deps.Stderr, "Hint: this may succeed if you try again")
	}
	return err
}

// classify turns pipeline failures into task errors and leaves request
// errors such as ENOTFOUND as they are.
func classify(err error) error {
	switch radar.ErrorCode(err) {
	case radar.EINVALID, radar.ENOTFOUND, radar.ECONFLICT, radar.EFORBIDDEN:
		return err
	}
	return radar.ClassifyError(err)
}
