package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tbranagh/storyloom/internal/loader"
	"github.com/tbranagh/storyloom/pkg/world"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <world.json> [<world.json> ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &WorldValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type WorldValidator struct {
	errors []string
}

func (v *WorldValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	// Validate filename format
	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".json" && ext != ".lua" {
		return fmt.Errorf("world file must have .json or .lua extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !isValidWorldFilename(nameWithoutExt) {
		return fmt.Errorf("world filename '%s' must be lowercase snake_case (e.g., my_world.json, not my-world.json or MyWorld.json)", baseName)
	}

	v.errors = nil

	if ext == ".json" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("file %s contains invalid JSON", filename)
		}
	}

	doc, err := loader.Read(filename)
	if err != nil {
		return fmt.Errorf("file %s failed to parse: %w", filename, err)
	}

	v.validateDocument(doc)

	// Structural validation: build the graph and collect every violation
	// in one pass.
	if _, err := world.Build(doc); err != nil {
		var ve *world.ValidationError
		if errors.As(err, &ve) {
			for _, violation := range ve.Violations {
				v.addError(violation.Message)
			}
		} else {
			return fmt.Errorf("file %s failed to build: %w", filename, err)
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

// validateDocument lints id naming conventions. These are style problems
// rather than structural ones, so they are reported alongside graph
// violations instead of replacing them.
func (v *WorldValidator) validateDocument(doc *world.Document) {
	v.validateIDFormat("metadata start", doc.Metadata.Start)

	for id := range doc.Locations {
		v.validateIDFormat("location ID", id)
	}
	for id := range doc.Actors {
		v.validateIDFormat("actor ID", id)
	}
	for id := range doc.Items {
		v.validateIDFormat("item ID", id)
	}
	for id := range doc.Locks {
		v.validateIDFormat("lock ID", id)
	}
	for id := range doc.Parts {
		v.validateIDFormat("part ID", id)
	}
	for id := range doc.Commitments {
		v.validateIDFormat("commitment ID", id)
	}
	for id := range doc.ScheduledEvents {
		v.validateIDFormat("scheduled event ID", id)
	}
	for id := range doc.Gossip {
		v.validateIDFormat("gossip ID", id)
	}
	for id := range doc.Spreads {
		v.validateIDFormat("spread ID", id)
	}

	for id, loc := range doc.Locations {
		for _, exit := range loc.Exits {
			if exit.Direction == "" {
				v.addError(fmt.Sprintf("location '%s' has an exit with no direction", id))
			}
		}
	}
}

func (v *WorldValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *WorldValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidWorldFilename(name string) bool {
	// Allow 'x.' prefix for experimental worlds
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
