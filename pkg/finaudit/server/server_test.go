package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/finaudit-go/pkg/finaudit"
)

func setupTestApp() *fiber.App {
	return New(finaudit.DefaultOptions(), nil).App()
}

func postJSON(t *testing.T, app *fiber.App, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, Version, result["version"])
}

const mismatchBody = `{
  "tables": [{
    "name": "IS",
    "column_labels": ["당기"],
    "rows": [
      {"label": "  A", "cells": ["50,000"]},
      {"label": "  B", "cells": ["30,000"]},
      {"label": "합계", "cells": ["79,000"]}
    ]
  }]
}`

func TestVerifyEndpoint(t *testing.T) {
	app := setupTestApp()

	status, body := postJSON(t, app, mismatchBody)
	require.Equal(t, fiber.StatusOK, status, string(body))

	var report struct {
		Findings []struct {
			Kind     string `json:"kind"`
			Table    string `json:"table"`
			RowRefs  []int  `json:"row_refs"`
			Expected string `json:"expected"`
			Actual   string `json:"actual"`
		} `json:"findings"`
		Tables []struct {
			Name              string `json:"name"`
			TotalRowsDetected int    `json:"total_rows_detected"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(body, &report))
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "SumMismatch", report.Findings[0].Kind)
	assert.Equal(t, []int{2}, report.Findings[0].RowRefs)
	assert.Equal(t, "80000", report.Findings[0].Expected)
	assert.Equal(t, "79000", report.Findings[0].Actual)
	require.Len(t, report.Tables, 1)
	assert.Equal(t, 1, report.Tables[0].TotalRowsDetected)
}

func TestVerifyEndpoint_RequestOptions(t *testing.T) {
	app := setupTestApp()
	body := strings.Replace(mismatchBody, `}]
}`, `}],
  "options": {"tables": {"IS": {"tolerance": 1000}}}
}`, 1)

	status, data := postJSON(t, app, body)
	require.Equal(t, fiber.StatusOK, status, string(data))

	var report struct {
		Findings []json.RawMessage `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Empty(t, report.Findings)
}

func TestVerifyEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		option string
	}{
		{"malformed json", `{"tables": [`, fiber.StatusBadRequest, ""},
		{"no tables", `{"tables": []}`, fiber.StatusBadRequest, ""},
		{"negative tolerance", `{"tables": [{"name": "T", "rows": []}], "options": {"tolerance": "-1"}}`,
			fiber.StatusBadRequest, "tolerance"},
		{"empty keywords", `{"tables": [{"name": "T", "rows": []}], "options": {"total_keywords": []}}`,
			fiber.StatusBadRequest, "total_keywords"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := postJSON(t, setupTestApp(), tt.body)
			assert.Equal(t, tt.status, status)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(data, &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.option, resp.Option)
		})
	}
}
