// Command openapi-compat compares two swagger.yaml revisions and fails when
// the newer one removes paths, operations or response codes. Intended as a
// CI guard in front of clients generated from the committed docs.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var httpMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {},
	"patch": {}, "head": {}, "options": {},
}

// swaggerDoc holds the only part of the spec the check cares about.
type swaggerDoc struct {
	Paths map[string]map[string]operation `yaml:"paths"`
}

type operation struct {
	Responses map[string]yaml.Node `yaml:"responses"`
}

func main() {
	basePath := flag.String("base", "", "base swagger.yaml path")
	revisionPath := flag.String("revision", "", "revision swagger.yaml path")
	flag.Parse()

	if strings.TrimSpace(*basePath) == "" || strings.TrimSpace(*revisionPath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat -base <path> -revision <path>")
		os.Exit(2)
	}

	base, err := loadDoc(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
		os.Exit(1)
	}
	revision, err := loadDoc(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
		os.Exit(1)
	}

	issues := removals(base, revision)
	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}

func loadDoc(path string) (*swaggerDoc, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc swaggerDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, fmt.Errorf("%s: missing top-level paths field", path)
	}

	// drop non-operation keys like parameters and $ref
	for _, ops := range doc.Paths {
		for method := range ops {
			if _, ok := httpMethods[strings.ToLower(method)]; !ok {
				delete(ops, method)
			}
		}
	}
	return &doc, nil
}

// removals lists everything present in base that the revision dropped.
func removals(base, revision *swaggerDoc) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}

			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s %s -> %s",
						strings.ToUpper(method), path, code))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
