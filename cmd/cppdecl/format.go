package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func formatDeclarationsText(w io.Writer, decls []CLIDeclaration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tFULL NAME\tTYPE\tFILE\tLINE")
	for _, d := range decls {
		typ := d.TypeExpr
		if d.Kind == "class" {
			typ = d.ClassType
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", d.ID, d.Kind, d.FullName, typ, d.File, d.Line)
	}
	tw.Flush()
}

func formatRelationsText(w io.Writer, rels []CLIRelation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPTH\tACCESS\tCLASS\tFILE\tLINE")
	for _, r := range rels {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", r.Depth, r.Access, r.Class.FullName, r.Class.File, r.Class.Line)
	}
	tw.Flush()
}

// formatHierarchyText prints ancestors above the class and descendants
// below it, indented by depth.
func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "Class: %s\n\n", h.Class.FullName)
	if len(h.Ancestors) > 0 {
		fmt.Fprintln(w, "Ancestors:")
		for _, r := range h.Ancestors {
			fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", r.Depth), r.Class.FullName, r.Access)
		}
		fmt.Fprintln(w)
	}
	if len(h.Descendants) > 0 {
		fmt.Fprintln(w, "Descendants:")
		for _, r := range h.Descendants {
			fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", r.Depth), r.Class.FullName, r.Access)
		}
	}
}

func formatTypeUsesText(w io.Writer, uses []CLITypeUse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tORDINAL\tKIND\tFULL NAME\tTYPE")
	for _, u := range uses {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			u.Role, u.Ordinal, u.Declaration.Kind, u.Declaration.FullName, u.Declaration.TypeExpr)
	}
	tw.Flush()
}

func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tLANGUAGE")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.ID, f.Path, f.Language)
	}
	tw.Flush()
}

func formatMergeSummaryText(w io.Writer, s CLIMergeSummary) {
	fmt.Fprintln(w, "Merge Summary")
	fmt.Fprintln(w, "=============")
	fmt.Fprintf(w, "Units: %d\n", s.Units)
	fmt.Fprintf(w, "Classes: %d (%d canonical, %d duplicates removed)\n", s.Classes, s.CanonicalClasses, s.DuplicatesRemoved)
	fmt.Fprintf(w, "Declared types: %d (%d relinked)\n", s.DeclaredTypes, s.Relinked)
	if len(s.Unresolved) > 0 {
		fmt.Fprintln(w, "Unresolved:")
		for _, u := range s.Unresolved {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIDeclaration:
		formatDeclarationsText(w, v)
	case CLIDeclaration:
		formatDeclarationsText(w, []CLIDeclaration{v})
	case []CLIRelation:
		formatRelationsText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case []CLITypeUse:
		formatTypeUsesText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case CLIMergeSummary:
		formatMergeSummaryText(w, v)
	case CLIExportSummary:
		fmt.Fprintf(w, "Exported %d classes and %d edges to %s\n", v.Classes, v.Edges, v.URI)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
