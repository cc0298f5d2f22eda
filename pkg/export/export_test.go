package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/export"
)

func localResults() []map[string]string {
	row := func(model, member, variable string) map[string]string {
		return map[string]string{
			"model": model, "ensemble": member, "variable": variable,
			"project": "CMIP5", "institute": "INST", "path": "/rootdir/" + model + "/" + member + "/" + variable,
		}
	}
	return []map[string]string{
		row("mod1", "r1i1p1", "tas"),
		row("mod1", "r1i1p1", "pr"),
		row("mod1", "r2i1p1", "pr"),
		row("mod2", "r1i1p1", "pr"),
		row("mod2", "r1i1p1", "tas"),
		row("mod3", "r1i1p1", "tas"),
		row("mod3", "r2i1p1", "tas"),
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "CMIP6_query.csv", export.Filename("cmip6"))
	assert.Equal(t, "RESULT_query.csv", export.Filename(""))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, localResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, []string{"path", "ensemble", "model", "variable"}, records[0])
	assert.Equal(t, []string{"/rootdir/mod1/r1i1p1/tas", "r1i1p1", "mod1", "tas"}, records[1])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := export.WriteCSV(&buf, nil)
	assert.True(t, errors.IsNoInput(err))
	assert.Zero(t, buf.Len())
}

func TestCompute(t *testing.T) {
	s, err := export.Compute("CMIP5", localResults())
	require.NoError(t, err)

	assert.Equal(t, []string{"mod1", "mod2", "mod3"}, s.Models)
	assert.Equal(t, 5, s.ModelMembers)
	assert.Equal(t, []string{"r1i1p1", "r2i1p1"}, s.Members["mod1"])
	assert.Equal(t, map[int][]string{1: {"mod2"}, 2: {"mod1", "mod3"}}, s.ByMemberCount())

	t.Run("CMIP6 uses source and member ids", func(t *testing.T) {
		s, err := export.Compute("CMIP6", []map[string]string{
			{"source_id": "NorESM2-LM", "member_id": "r3i1p1f1"},
			{"source_id": "NESM3", "member_id": "r1i1p1f1"},
			{"source_id": "NESM3", "member_id": "r1i1p1f1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"NESM3", "NorESM2-LM"}, s.Models)
		assert.Equal(t, 2, s.ModelMembers)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := export.Compute("CMIP7", nil)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestWriteStats(t *testing.T) {
	s, err := export.Compute("CMIP5", localResults())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WriteStats(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "Query summary")
	assert.Contains(t, out, "3 model/s are available:\nmod1 mod2 mod3\n")
	assert.Contains(t, out, "A total of 5 unique model-member combinations are available.")
	assert.Contains(t, out, "1 model/s have 1 member/s:\nmod2\n")
	assert.Contains(t, out, "2 model/s have 2 member/s:\nmod1 mod3\n")

	buf.Reset()
	require.NoError(t, export.WriteStats(&buf, &export.Stats{}))
	assert.Equal(t, "No results are available for this query\n", buf.String())
}
