package gaa

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/tidwall/gjson"
)

// FileLoader reads items a spider exported earlier, either as one JSON
// array or as JSON lines.
type FileLoader struct {
	path   string
	logger *logging.Logger
}

var _ usecase.SourceAdapter = (*FileLoader)(nil)

func NewFileLoader(path string, logger *logging.Logger) *FileLoader {
	if logger == nil {
		logger = logging.Default()
	}
	return &FileLoader{path: strings.TrimSpace(path), logger: logger}
}

func (l *FileLoader) Name() string {
	return fixture.SourceGAA
}

func (l *FileLoader) Fetch(ctx context.Context) ([]fixture.RawPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expanded, err := homedir.Expand(l.path)
	if err != nil {
		return nil, fmt.Errorf("expand GAA_JSON_FILE %q: %w", l.path, err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read GAA_JSON_FILE: %w", err)
	}

	docs, err := splitDocuments(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", expanded, err)
	}
	l.logger.InfoContext(ctx, "gaa fixtures loaded from file", "path", expanded, "items", len(docs))

	payloads := make([]fixture.RawPayload, 0, len(docs))
	for _, doc := range docs {
		payloads = append(payloads, fixture.RawPayload{Source: fixture.SourceGAA, Doc: doc})
	}
	return payloads, nil
}

// splitDocuments keeps malformed JSON lines so the normalizer can count them.
func splitDocuments(raw []byte) ([][]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		if !gjson.ValidBytes(trimmed) {
			return nil, fmt.Errorf("invalid JSON array")
		}
		var docs [][]byte
		gjson.ParseBytes(trimmed).ForEach(func(_, value gjson.Result) bool {
			docs = append(docs, []byte(value.Raw))
			return true
		})
		return docs, nil
	}

	var docs [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		docs = append(docs, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
