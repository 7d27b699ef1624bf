package project

import (
	"errors"
	"fmt"
	"go/token"

	"modernc.org/scanner"

	"github.com/pawlang/paw/frontend"
)

// collectParseError appends one file's parse failure to the list,
// carrying the front-end's position when it reports one.
func collectParseError(errs *scanner.ErrList, resPath string, err error) {
	var pe *frontend.ParseError
	if errors.As(err, &pe) {
		pos := token.Position{Filename: pe.File, Line: pe.Line, Column: pe.Col}
		if pe.Tok != "" {
			errs.AddErr(pos, "%s (near %q)", pe.Msg, pe.Tok)
			return
		}
		errs.AddErr(pos, "%s", pe.Msg)
		return
	}
	errs.AddErr(token.Position{}, "%s: %s", resPath, err)
}

// firstParseError extracts the first error from a parser error list.
func firstParseError(err error) error {
	if el, ok := err.(scanner.ErrList); ok && len(el) > 0 {
		return fmt.Errorf("%s", el[0])
	}
	return err
}
