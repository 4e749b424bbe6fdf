// Package output renders structured command results as YAML or JSON.
//
//	format, err := output.ParseFormat("json")
//	err = output.Print(format, summary)
//	err = output.WriteFile(ctx, "report.yaml", output.FormatYAML, summary)
package output
