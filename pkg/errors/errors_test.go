package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/coecms/clef/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoMatchError(t *testing.T) {
	t.Run("with url", func(t *testing.T) {
		err := pkgerrors.NewNoMatchError("tas", "https://esgf.example.org/search?query=tas")
		assert.Equal(t, "no matches found on ESGF, check at https://esgf.example.org/search?query=tas", err.Error())
		assert.True(t, pkgerrors.IsNoMatch(err))
		assert.False(t, pkgerrors.IsOverflow(err))
	})

	t.Run("without url", func(t *testing.T) {
		assert.Equal(t, "no matches found on ESGF", (&pkgerrors.NoMatchError{}).Error())
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("search: %w", pkgerrors.NewNoMatchError("", ""))
		assert.True(t, pkgerrors.IsNoMatch(err))

		var nm *pkgerrors.NoMatchError
		require.True(t, errors.As(err, &nm))
	})
}

func TestOverflowError(t *testing.T) {
	err := pkgerrors.NewOverflowError(5000, 1000, "https://esgf.example.org/search")
	assert.Equal(t, "too many results (5000 > 1000), try limiting your search: https://esgf.example.org/search", err.Error())
	assert.True(t, pkgerrors.IsOverflow(err))
	assert.False(t, pkgerrors.IsNoMatch(err))
}

func TestInputErrors(t *testing.T) {
	facet := pkgerrors.NewAmbiguousFacetError("source_id", "CMIP5", []string{"model", "experiment"})
	assert.Equal(t, "source_id is not a valid constraint name for CMIP5. Valid constraints are: model, experiment", facet.Error())
	assert.True(t, pkgerrors.IsValidationError(facet))

	field := pkgerrors.NewValidationError("varying", nil, "nothing to complete")
	assert.Equal(t, "invalid varying: nothing to complete", field.Error())
	assert.ErrorIs(t, field, pkgerrors.ErrInvalidInput)

	bare := &pkgerrors.ValidationError{Message: "only one of --remote, --local"}
	assert.Equal(t, "invalid input: only one of --remote, --local", bare.Error())
}

func TestAPIError(t *testing.T) {
	down := pkgerrors.NewAPIError("esgf.nci.org.au", 503, "service unavailable")
	assert.Equal(t, "search node esgf.nci.org.au returned 503: service unavailable", down.Error())
	assert.ErrorIs(t, down, pkgerrors.ErrCatalogUnavailable)

	bad := pkgerrors.NewAPIError("esgf.nci.org.au", 400, "bad request")
	assert.NotErrorIs(t, bad, pkgerrors.ErrCatalogUnavailable)

	base := errors.New("connection reset")
	wrapped := &pkgerrors.APIError{Node: "node", Message: base.Error(), Err: base}
	assert.Equal(t, "search node node: connection reset", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("boom")

	assert.Nil(t, pkgerrors.WrapIO("read", "queue.csv", nil))
	assert.Nil(t, pkgerrors.WrapParse("csv", "queue.csv", nil))
	assert.Nil(t, pkgerrors.WrapResource("query", "inventory", "", nil))

	ioErr := pkgerrors.WrapIO("read", "queue.csv", base)
	assert.ErrorIs(t, ioErr, base)
	assert.Equal(t, "read queue.csv: boom", ioErr.Error())

	parseErr := pkgerrors.WrapParse("range", "", base)
	assert.ErrorIs(t, parseErr, base)
	assert.Equal(t, "cannot parse range: boom", parseErr.Error())

	resErr := pkgerrors.WrapResource("query", "inventory", "", base)
	assert.ErrorIs(t, resErr, base)
	assert.Equal(t, "cannot query inventory: boom", resErr.Error())

	cfgErr := pkgerrors.NewConfigError("database", "dsn is empty", nil)
	assert.Equal(t, "config database: dsn is empty", cfgErr.Error())
	assert.ErrorIs(t, pkgerrors.NewConfigError("config", "cannot read x", base), base)
}

func TestSentinels(t *testing.T) {
	err := fmt.Errorf("and-filter: %w", pkgerrors.ErrNoInput)
	assert.True(t, pkgerrors.IsNoInput(err))
	assert.False(t, pkgerrors.IsValidationError(err))

	assert.True(t, pkgerrors.IsTimeout(fmt.Errorf("%w: GET x", pkgerrors.ErrTimeout)))
	assert.True(t, pkgerrors.IsCanceled(fmt.Errorf("%w: GET x", pkgerrors.ErrCanceled)))
}
