package mir

import "tealc/internal/ir"

// ResolveNames assigns each subroutine the shortest name that remains
// unique across the program (spec 4.F, "subroutine naming"): main is
// always "main"; everything else tries, in order, its bare method name,
// then its immediately enclosing class.method (when the qualified name
// has one), then the full dotted name, and only appends a numeric
// disambiguator if even that collides (two distinct subroutines sharing
// a fully-qualified name, which the AWST layer should never produce but
// the resolver must still terminate on).
func ResolveNames(prog *ir.Program) map[*ir.Subroutine]string {
	names := map[*ir.Subroutine]string{prog.Main: "main"}
	used := map[string]bool{"main": true}

	for _, sub := range prog.Subroutines {
		candidates := candidateNames(sub.Name)
		assigned := false
		for _, c := range candidates {
			if !used[c] {
				names[sub] = c
				used[c] = true
				assigned = true
				break
			}
		}
		if !assigned {
			base := sub.Name
			for i := 1; ; i++ {
				c := base + disambiguatorSuffix(i)
				if !used[c] {
					names[sub] = c
					used[c] = true
					break
				}
			}
		}
	}
	return names
}

// candidateNames returns the shortest-to-longest name forms for a
// dot-qualified subroutine name, mirroring the three independent name
// fields the original compiler tracks per subroutine (method_name,
// class_name, full_name): "method" yields just itself; "Class.method"
// yields ["method", "Class.method"]; a fully qualified name with an
// outer module/namespace prefix, e.g. "module.Class.method", yields
// ["method", "Class.method", "module.Class.method"] so the immediately
// enclosing class name is tried before falling all the way back to the
// complete dotted path.
func candidateNames(qualified string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(qualified); i++ {
		if qualified[i] == '.' {
			parts = append(parts, qualified[start:i])
			start = i + 1
		}
	}
	parts = append(parts, qualified[start:])

	if len(parts) == 1 {
		return parts
	}
	out := []string{parts[len(parts)-1]}
	if len(parts) >= 3 {
		out = append(out, parts[len(parts)-2]+"."+parts[len(parts)-1])
	}
	out = append(out, qualified)
	return out
}

func disambiguatorSuffix(i int) string {
	return "_" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}
