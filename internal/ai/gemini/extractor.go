package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/trial-screener/internal/ai"
	"github.com/spigell/trial-screener/internal/patient"
	"github.com/spigell/trial-screener/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	recordPlaceholder   = "{{MEDICAL_RECORD}}"
	defaultMaxLogLength = 200
)

var requiredFields = []string{"patient_id", "age", "diagnosis", "location"}

// Extractor asks Gemini to turn a medical record into a patient record.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Extract never returns an error. Any failure of the call, the response
// parsing or the record validation is logged and reported as a sentinel extraction.
func (e *Extractor) Extract(ctx context.Context, text string) *ai.Extraction {
	raw, record, err := e.extract(ctx, text)
	if err != nil {
		rawForLog := raw
		if rawForLog == "" {
			rawForLog = "no output"
		}
		e.logger.Error("patient extraction failed",
			zap.Error(err),
			zap.String("raw_response", rawForLog),
		)
		return ai.Failure(err, raw)
	}

	e.logger.Info("patient extracted",
		zap.String("patient_id", record.ID),
		zap.Int("biomarkers", len(record.Biomarkers)),
		zap.Int("medications", len(record.Medications)),
	)

	return &ai.Extraction{Patient: record, Raw: raw}
}

func (e *Extractor) extract(ctx context.Context, text string) (string, *patient.Record, error) {
	if e.generator == nil {
		return "", nil, errors.New("gemini generator is not configured")
	}

	prompt := buildPrompt(text)

	e.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	record, err := parseResponse(raw)
	if err != nil {
		return raw, nil, err
	}

	return raw, record, nil
}

func buildPrompt(text string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Extract patient data as JSON.\n\nMedical Record:\n" + recordPlaceholder
	}
	return strings.ReplaceAll(template, recordPlaceholder, text)
}

// parseResponse decodes the model output into a validated record.
func parseResponse(raw string) (*patient.Record, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if data == nil {
		return nil, errors.New("parse gemini response: expected a json object")
	}

	var missing []string
	for _, key := range requiredFields {
		if data[key] == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("gemini response is missing required fields: %s", strings.Join(missing, ", "))
	}

	if data["biomarkers"] == nil {
		data["biomarkers"] = map[string]any{}
	}
	if data["medications"] == nil {
		data["medications"] = []any{}
	}

	if err := checkNullEntries(data); err != nil {
		return nil, err
	}

	var fields patient.Record
	if err := decodeFields(data, &fields); err != nil {
		return nil, fmt.Errorf("decode patient fields: %w", err)
	}

	return patient.New(fields)
}

// decodeFields maps the loosely typed json object onto the record. Numeric
// strings such as "52" or "8.2" are accepted, booleans and empty strings are not.
func decodeFields(data map[string]any, out *patient.Record) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(numericHook),
	})
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}

// checkNullEntries rejects null biomarker readings and medications. The decoder
// would otherwise turn them into zero values.
func checkNullEntries(data map[string]any) error {
	if biomarkers, ok := data["biomarkers"].(map[string]any); ok {
		for _, name := range slices.Sorted(maps.Keys(biomarkers)) {
			if biomarkers[name] == nil {
				return fmt.Errorf("gemini response has a null value for biomarker %q", name)
			}
		}
	}

	if medications, ok := data["medications"].([]any); ok {
		for i, medication := range medications {
			if medication == nil {
				return fmt.Errorf("gemini response has a null medication at index %d", i)
			}
		}
	}

	return nil
}

// numericHook narrows the weak conversions for int and float targets to json
// numbers and numeric strings.
func numericHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int:
		switch v := data.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected an integer, got %v", v)
			}
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected an integer, got %q", v)
			}
			return n, nil
		case bool:
			return nil, fmt.Errorf("expected an integer, got %t", v)
		}
	case reflect.Float64:
		switch v := data.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("expected a number, got %q", v)
			}
			return f, nil
		case bool:
			return nil, fmt.Errorf("expected a number, got %t", v)
		}
	}

	return data, nil
}

// extractJSON strips code fences the model may wrap around the payload.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		// Drop the language tag, whatever its case.
		if idx := strings.IndexByte(raw, '\n'); idx != -1 && !strings.ContainsAny(raw[:idx], "{[") {
			raw = raw[idx+1:]
		} else if len(raw) >= 4 && strings.EqualFold(raw[:4], "json") {
			raw = raw[4:]
		}
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
