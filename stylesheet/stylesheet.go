// Package stylesheet renders an export result into a Tailwind v4 CSS
// file: a theme block binding each token to a custom property, a :root
// block with the light values and a .dark block with the dark values.
package stylesheet

import (
	"fmt"
	"strings"

	"tokenplane/model"
)

const header = `@import "tailwindcss";
@import "tw-animate-css";

@custom-variant dark (&:is(.dark *));

@theme inline {
  --radius-sm: calc(var(--radius) - 4px);
  --radius-md: calc(var(--radius) - 2px);
  --radius-lg: var(--radius);
  --radius-xl: calc(var(--radius) + 4px);
`

const footer = `@layer base {
  * { @apply border-border outline-ring/50; }
  body { @apply bg-background text-foreground; }
}
`

// Render produces the stylesheet text. Output is deterministic given the
// input: variables appear in slice order, which is resolution order. No
// escaping is applied; clean names are [A-Za-z0-9-] by construction and
// values are oklch() strings.
func Render(result *model.ExportResult) string {
	var b strings.Builder

	b.WriteString(header)
	for _, v := range result.Variables {
		fmt.Fprintf(&b, "  --color-%s: var(--%s);\n", v.CleanName, v.CleanName)
	}
	b.WriteString("}\n\n")

	b.WriteString(":root {\n  --radius: 0.625rem;\n")
	for _, v := range result.Variables {
		fmt.Fprintf(&b, "  --%s: %s;\n", v.CleanName, v.Light)
	}
	b.WriteString("}\n\n")

	b.WriteString(".dark {\n")
	for _, v := range result.Variables {
		fmt.Fprintf(&b, "  --%s: %s;\n", v.CleanName, v.Dark)
	}
	b.WriteString("}\n\n")

	b.WriteString(footer)
	return b.String()
}
