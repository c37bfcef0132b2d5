package agent

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"data-analyst/internal/helper"
	"data-analyst/internal/models"
	"data-analyst/internal/query"
	"data-analyst/internal/table"
)

// Generator maps (system instructions, user question) to generated text.
// Satisfied by llm.Client and by test fakes.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Agent answers free-text questions about a table by asking the generator
// for a query-language expression, evaluating it and formatting the
// result. One generation, one execution, no retries.
type Agent struct {
	gen    Generator
	engine *query.Engine
	log    zerolog.Logger
}

// New binds an agent to a table. The engine it builds is the only path
// from generated text to the table.
func New(gen Generator, tbl *table.Table, log zerolog.Logger) *Agent {
	return &Agent{
		gen:    gen,
		engine: query.NewEngine(tbl, log),
		log:    log,
	}
}

// Answer runs the generate/execute/format pipeline for one question.
// Execution failures never propagate: they degrade to an apology message.
// Only a generation failure is returned as an error.
func (a *Agent) Answer(ctx context.Context, question, contextText string) (string, error) {
	a.log.Info().Str("question", question).Msg("Generating query")

	system := fmt.Sprintf(models.SystemPromptTemplate, contextText, models.NeedContextSentinel)
	generated, err := a.gen.Generate(ctx, system, question)
	if err != nil {
		return "", err
	}

	code := Sanitize(generated)
	a.log.Debug().Str("query", helper.Truncate(code, 120)).Msg("Generated query")

	if strings.Contains(code, "I need more context") {
		return models.NotEnoughInfoMessage, nil
	}

	res := a.engine.Run(code)
	return a.format(res), nil
}

// Sanitize strips surrounding quote characters and markdown code fences
// from generated text.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (a *Agent) format(res query.Result) string {
	switch res.Kind {
	case query.KindError:
		return fmt.Sprintf("I encountered an error: %v. Please try rephrasing your question.", res.Err)
	case query.KindTable:
		return "Here are the results:\n\n" + table.RecordsMarkdown(res.Records)
	case query.KindList:
		return fmt.Sprintf("**Result:** [%s]", strings.Join(res.List, ", "))
	case query.KindChart:
		return res.Chart
	case query.KindNone:
		return models.ExecutedNoValueMessage
	default:
		return "**Answer:** " + formatScalar(res.Scalar)
	}
}

func formatScalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case float64:
		return formatFloat(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatFloat rounds to 4 decimal places for display and drops trailing
// zeros, so a mean of 20.159999999999997 reads as 20.16.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
