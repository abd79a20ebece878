package agents

import "strings"

var destinationAdvice = map[string][]string{
	"tokyo": {
		"a Tokyo Metro 24h pass covers most sightseeing days",
		"buy Senso-ji area tickets ahead of time",
		"Ginza and Shinjuku are walkable between sights",
		"convenience-store breakfasts are cheap and quick",
	},
	"kyoto": {
		"city buses or taxis beat trains inside Kyoto",
		"many temples require taking shoes off",
		"a city bus day pass pays for itself",
		"plan Arashiyama as a full day",
	},
	"osaka": {
		"the Osaka Amazing Pass bundles metro and sights",
		"Universal Studios takes a whole day",
		"Dotonbori and Osaka Castle pair well in one day",
	},
	"nara": {
		"rent a bicycle or walk; the park area is compact",
		"most sights are reachable on foot from Naramachi",
	},
}

var generalAdvice = []string{
	"book popular attractions ahead of time",
	"carry travel insurance",
	"pack a power bank",
	"keep small cash on hand",
}

// adviceFor returns destination-specific notes plus the general ones.
func adviceFor(destination string) []string {
	specific := destinationAdvice[strings.ToLower(strings.TrimSpace(destination))]
	out := make([]string, 0, len(specific)+len(generalAdvice))
	out = append(out, specific...)
	out = append(out, generalAdvice...)
	return out
}
