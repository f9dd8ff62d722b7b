package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
)

// document is the generated file: one schema per envelope type.
type document struct {
	Title       string                        `json:"title"`
	Description string                        `json:"description"`
	Envelope    map[string]string             `json:"envelope"`
	Messages    map[string]*jsonschema.Schema `json:"messages"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() document {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	doc := document{
		Title:       "Arena Relay Protocol",
		Description: "Payload schemas for every {t, p} envelope exchanged with the relay",
		Envelope: map[string]string{
			"t": "message type",
			"p": "payload described under messages",
		},
		Messages: make(map[string]*jsonschema.Schema),
	}
	for t, msg := range proto.Types() {
		schema := reflector.Reflect(msg)
		schema.Title = string(t)
		doc.Messages[string(t)] = schema
	}
	return doc
}

func writeSchema(outPath string, doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
