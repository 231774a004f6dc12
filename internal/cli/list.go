package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// templatesCommand creates the templates command.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the template registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTemplatesList(cmd.Context())
		},
	})
	return cmd
}

// fontsCommand creates the fonts command.
func (c *CLI) fontsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Inspect the font directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List fonts in the font directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFontsList(cmd.Context())
		},
	})
	return cmd
}

func (c *CLI) runTemplatesList(ctx context.Context) error {
	asm, closeFn, err := c.newAssembler(ctx, assemblerOpts{noCache: true})
	if err != nil {
		return err
	}
	defer closeFn()

	reg := asm.Registry
	if reg.Len() == 0 {
		printWarning("No templates registered")
		return nil
	}

	rows := make([][]string, 0, reg.Len())
	for _, id := range reg.IDs() {
		s, _ := reg.Lookup(id)
		width := "∞"
		if !s.Unbounded() {
			width = strconv.Itoa(s.MaxWidth)
		}
		lines := "∞"
		if n, ok := s.LineCap(); ok {
			lines = strconv.Itoa(n)
		}
		font := s.FontName
		if font == "" {
			font = StyleDim.Render("fallback")
		}
		rows = append(rows, []string{
			id,
			fmt.Sprintf("%g,%g", s.Position.X, s.Position.Y),
			width, lines, font, strconv.Itoa(s.FontSize), s.Color, string(s.Align),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Template", "Position", "Width", "Lines", "Font", "Size", "Color", "Align").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})
	fmt.Println(t.Render())
	return nil
}

func (c *CLI) runFontsList(ctx context.Context) error {
	asm, closeFn, err := c.newAssembler(ctx, assemblerOpts{noCache: true})
	if err != nil {
		return err
	}
	defer closeFn()

	names := asm.Fonts.Names()
	if len(names) == 0 {
		printWarning("No fonts in %s", asm.Fonts.Dir())
		return nil
	}
	fallback := asm.Options().FallbackFont
	for _, n := range names {
		if n == fallback {
			printKeyValue(n, StyleSuccess.Render("fallback"))
			continue
		}
		printKeyValue(n, "")
	}
	if !asm.Fonts.Has(fallback) {
		printWarning("Fallback font %s is missing", fallback)
	}
	printDetail("Directory: %s", asm.Fonts.Dir())
	return nil
}
