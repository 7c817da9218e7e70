package reports

import "strings"

// GenericIcon is the fallback when no keyword matches or classification
// fails.
const GenericIcon = "HelpCircle"

type iconRule struct {
	keywords []string
	icon     string
}

// iconRules maps description keywords to map-pin icon names. Order matters:
// the first rule with a matching keyword wins.
var iconRules = []iconRule{
	{[]string{"pothole", "traffic", "road"}, "Car"},
	{[]string{"graffiti"}, "SprayCan"},
	{[]string{"streetlight", "power"}, "LightbulbOff"},
	{[]string{"litter", "trash", "dumping"}, "Trash2"},
	{[]string{"broken", "bench", "sign"}, "Wrench"},
	{[]string{"hazard", "blockage"}, "TrafficCone"},
	{[]string{"flood", "water", "leak"}, "Waves"},
	{[]string{"tree", "overgrown"}, "Trees"},
	{[]string{"pest", "insect"}, "Bug"},
}

// ClassifyIcon picks an icon for a report description by case-insensitive
// substring matching against the rule table.
func ClassifyIcon(description string) string {
	lowered := strings.ToLower(description)
	for _, rule := range iconRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.icon
			}
		}
	}
	return GenericIcon
}

// KnownIcon reports whether name is an icon the classifier can produce.
// Used to validate AI-suggested icons before trusting them.
func KnownIcon(name string) bool {
	if name == GenericIcon {
		return true
	}
	for _, rule := range iconRules {
		if rule.icon == name {
			return true
		}
	}
	return false
}
