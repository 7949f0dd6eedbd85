package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najah-ai/learner-service/internal/estimator"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "learnerctl (devel)\n", out)
}

func TestParseAnswers(t *testing.T) {
	responses, err := parseAnswers("1, 0,true,n,,Y", 0.4)
	require.NoError(t, err)
	require.Len(t, responses, 5)
	assert.Equal(t, []bool{true, false, true, false, true}, []bool{
		responses[0].Correct, responses[1].Correct, responses[2].Correct, responses[3].Correct, responses[4].Correct,
	})
	assert.Equal(t, 0.4, responses[0].Difficulty)

	_, err = parseAnswers("1,maybe", 0.5)
	assert.ErrorContains(t, err, "answer 2")

	_, err = parseAnswers(" , ", 0.5)
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "", "simulate", "--answers", "1,1,0")
	require.NoError(t, err)

	assert.Contains(t, out, "Session simulation")
	assert.Contains(t, out, "0.5500")
	assert.Contains(t, out, "0.5950")
	assert.Contains(t, out, "correct")
	assert.Contains(t, out, "wrong")

	t.Run("answers are required", func(t *testing.T) {
		_, err := run(t, "", "simulate")
		assert.Error(t, err)
	})

	t.Run("initial state from flags", func(t *testing.T) {
		out, err := run(t, "", "simulate", "--answers", "0", "--ability", "0.8", "--confidence", "0.05")
		require.NoError(t, err)
		assert.Contains(t, out, "0.7200")
		assert.Contains(t, out, "0.0000")
	})
}

func writeHistory(t *testing.T) string {
	t.Helper()
	today := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	var points []estimator.ResultPoint
	for i := 13; i >= 0; i-- {
		correct := 8
		if i >= 7 {
			correct = 3
		}
		day := today.AddDate(0, 0, -i)
		for j := 0; j < 10; j++ {
			points = append(points, estimator.ResultPoint{
				CompletedAt: day.Add(time.Duration(10+j) * time.Hour / 2),
				Correct:     j < correct,
			})
		}
	}

	raw, err := json.Marshal(points)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestTrend(t *testing.T) {
	path := writeHistory(t)

	t.Run("json report", func(t *testing.T) {
		out, err := run(t, "", "trend", "--file", path, "--tz", "UTC", "--today", "2025-03-20", "--json")
		require.NoError(t, err)

		var report trendOutput
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Len(t, report.Series, 14)
		assert.Equal(t, 8, report.CurrentLevel)
		assert.Equal(t, estimator.TrendImproving, report.Result.Trend)
		assert.InDelta(t, 5.0, report.Result.ImprovementRate, 1e-9)
		require.NotNil(t, report.Result.PredictedCompletionDate)
		assert.Equal(t, "2025-03-20", report.Result.PredictedCompletionDate.Format(time.DateOnly))
	})

	t.Run("rendered report", func(t *testing.T) {
		out, err := run(t, "", "trend", "--file", path, "--tz", "UTC", "--target", "9", "--today", "2025-03-20")
		require.NoError(t, err)
		assert.Contains(t, out, "2025-03-07")
		assert.Contains(t, out, "improving")
		assert.Contains(t, out, "8 / 9")
		// one level left at five levels a day
		assert.Contains(t, out, "2025-03-21")
	})

	t.Run("stdin", func(t *testing.T) {
		stdin := fmt.Sprintf(`[{"completed_at":%q,"correct":true}]`, "2025-03-20T10:00:00Z")
		out, err := run(t, stdin, "trend", "-f", "-", "--tz", "UTC", "--json")
		require.NoError(t, err)
		assert.Contains(t, out, `"trend": "stable"`)
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := run(t, "not json", "trend", "-f", "-")
		assert.ErrorContains(t, err, "decode")

		_, err = run(t, "[]", "trend", "-f", "-", "--tz", "Mars/Olympus")
		assert.ErrorContains(t, err, "timezone")
	})
}
