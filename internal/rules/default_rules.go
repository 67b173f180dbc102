package rules

// DefaultRules returns the built-in set of context rules. The investment
// trade rule captures the trade verb so matches can be split into buy and
// sell categories.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     investmentRuleName,
			Regex:    `(buy|sell|koop|verkoop)\s+(\d+)\s+([A-Z]{2,5})\s+@\s+([\d.,]+)`,
			Category: "Investments",
			Priority: 100,
		},
		{
			Name:     "ATM Withdrawal",
			Regex:    `\b(geldautomaat|atm\s*withdrawal|cash\s*withdrawal)\b`,
			Category: "Cash",
			Priority: 90,
		},
		{
			Name:     "Salary",
			Regex:    `\b(salaris|salary|payroll|loon)\b`,
			Category: "Income:Salary",
			Priority: 90,
		},
		{
			Name:     "Tax Authority",
			Regex:    `\b(belastingdienst|tax\s*authority|irs\s*treas)\b`,
			Category: "Taxes",
			Priority: 85,
		},
		{
			Name:     "Internal Transfer",
			Regex:    `\b(eigen\s*rekening|internal\s*transfer|spaarrekening)\b`,
			Category: "Transfers",
			Priority: 80,
		},
	}
}
