package project

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modernc.org/scanner"

	"github.com/pawlang/paw/frontend"
)

func TestCollectParseErrorBuildsList(t *testing.T) {
	var errs scanner.ErrList
	collectParseError(&errs, "res://a.paw", &frontend.ParseError{
		File: "res://a.paw", Line: 3, Col: 5, Msg: "expected '{'", Tok: "fn",
	})
	collectParseError(&errs, "res://b.paw", fmt.Errorf("unreadable"))
	require.Len(t, errs, 2)

	assert.Contains(t, errs[0].Error(), "res://a.paw:3:5")
	assert.Contains(t, errs[1].Error(), "res://b.paw")
}

func TestFirstParseErrorSurfacesFirstEntry(t *testing.T) {
	var errs scanner.ErrList
	collectParseError(&errs, "res://a.paw", &frontend.ParseError{
		File: "res://a.paw", Line: 3, Col: 5, Msg: "expected '{'", Tok: "fn",
	})
	collectParseError(&errs, "res://z.paw", &frontend.ParseError{
		File: "res://z.paw", Line: 1, Col: 1, Msg: "expected declaration",
	})

	err := firstParseError(errs.Err())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "res://a.paw:3:5")
	assert.Contains(t, err.Error(), "expected '{'")
	assert.NotContains(t, err.Error(), "res://z.paw")
}

func TestFirstParseErrorPassesThroughPlainErrors(t *testing.T) {
	plain := fmt.Errorf("boom")
	assert.Equal(t, plain, firstParseError(plain))
}
