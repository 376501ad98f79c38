package render

// Theme is the paint palette applied to bound layers, keyed by role.
type Theme struct {
	Name   string
	Colors map[string]string
}

func LightTheme() Theme {
	return Theme{
		Name: "light",
		Colors: map[string]string{
			"land":       "#f2efe9",
			"water":      "#a0c8f0",
			"roads":      "#ffffff",
			"buildings":  "#d9d0c9",
			"boundaries": "#9e9cab",
			"labels":     "#333344",
		},
	}
}

func DarkTheme() Theme {
	return Theme{
		Name: "dark",
		Colors: map[string]string{
			"land":       "#1c1c22",
			"water":      "#10304d",
			"roads":      "#3a3a44",
			"buildings":  "#2a2a32",
			"boundaries": "#55536a",
			"labels":     "#c8c8d8",
		},
	}
}
