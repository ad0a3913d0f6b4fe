package copyrules

// Plan returns the candidates the rules select, in candidate order. Every
// rule is evaluated and the last match decides. Unmatched paths are excluded
// when the set contains an include rule and included otherwise.
func Plan(candidates []string, rules RuleSet) []string {
	defaultInclude := !rules.HasInclude()

	var selected []string
	for _, candidate := range candidates {
		include := defaultInclude
		for _, rule := range rules {
			if rule.Matches(candidate) {
				include = rule.Include
			}
		}
		if include {
			selected = append(selected, candidate)
		}
	}
	return selected
}
