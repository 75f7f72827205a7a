package coursegen

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "schema://coursegen/course.json"

func obj(required []string, props map[string]any) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{"type": "object", "required": req, "properties": props}
}

func str() map[string]any { return map[string]any{"type": "string"} }

func arr(items map[string]any, minItems int) map[string]any {
	return map[string]any{"type": "array", "items": items, "minItems": minItems}
}

// courseSchema is sent to the provider for structured output and used to validate the reply.
// It checks shape only; content rules live in normalize.
var courseSchema = obj([]string{"title", "chapters"}, map[string]any{
	"title":       str(),
	"description": str(),
	"chapters": arr(obj([]string{"title", "lessons"}, map[string]any{
		"title":       str(),
		"description": str(),
		"lessons": arr(obj([]string{"title", "content"}, map[string]any{
			"title":   str(),
			"content": str(),
			"xp":      map[string]any{"type": "integer"},
			"quiz": obj([]string{"questions"}, map[string]any{
				"questions": arr(obj([]string{"question", "options", "correctAnswer"}, map[string]any{
					"question":      str(),
					"options":       arr(str(), 0),
					"correctAnswer": str(),
					"explanation":   str(),
				}), 0),
			}),
		}), 1),
	}), 1),
})

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// Round trip so the compiler sees plain JSON values.
		raw, err := json.Marshal(courseSchema)
		if err != nil {
			compileErr = err
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add course schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

func validateShape(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile course schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("course json does not match schema: %w", err)
	}
	return nil
}
