package templates

import (
	"strings"
	"unicode/utf8"
)

// domainProfile associates a poster domain with the keywords that signal it
// in a user brief. Declaration order breaks scoring ties, so the more
// specific domains come first.
type domainProfile struct {
	name     string
	keywords []string
}

var domainProfiles = []domainProfile{
	{"church", []string{
		"église", "eglise", "culte", "dimanche", "paroisse", "gospel",
		"louange", "adoration", "prière", "priere", "pasteur", "chorale",
		"church", "worship", "sermon", "conférence chrétienne",
	}},
	{"restaurant", []string{
		"restaurant", "menu", "plat", "cuisine", "chef", "dégustation",
		"brunch", "buffet", "pizzeria", "traiteur", "food", "gastronomie",
	}},
	{"concert", []string{
		"concert", "musique", "artiste", "album", "scène", "scene",
		"festival", "dj", "rap", "tournée", "tournee", "live", "music",
	}},
	{"event", []string{
		"événement", "evenement", "soirée", "soiree", "gala", "anniversaire",
		"mariage", "invitation", "célébration", "celebration", "fête", "fete",
		"party", "event",
	}},
	{"business", []string{
		"entreprise", "promotion", "vente", "boutique", "offre", "service",
		"société", "societe", "commerce", "marketing", "business", "startup",
	}},
	{"education", []string{
		"école", "ecole", "formation", "cours", "université", "universite",
		"atelier", "séminaire", "seminaire", "étudiant", "etudiant", "school",
	}},
	{"beauty", []string{
		"beauté", "beaute", "salon", "coiffure", "maquillage", "esthétique",
		"esthetique", "spa", "cosmétique", "cosmetique", "beauty",
	}},
	{"sport", []string{
		"sport", "match", "tournoi", "football", "basketball", "fitness",
		"entraînement", "entrainement", "compétition", "competition", "gym",
	}},
	{"realestate", []string{
		"immobilier", "appartement", "maison", "terrain", "location",
		"vente immobilière", "agence", "villa", "real estate",
	}},
	{"travel", []string{
		"voyage", "tourisme", "destination", "vacances", "séjour", "sejour",
		"excursion", "travel", "hôtel", "hotel",
	}},
}

// fallbackDomains is the ordered chain consulted when no domain scores above
// zero. These carry generically reusable layouts.
var fallbackDomains = []string{"event", "business", "concert"}

// KnownDomain reports whether name is one of the declared poster domains.
func KnownDomain(name string) bool {
	for _, profile := range domainProfiles {
		if profile.name == name {
			return true
		}
	}
	return false
}

const (
	specificKeywordWeight = 3
	genericKeywordWeight  = 2
)

// DetectDomain scores the brief against every domain keyword list and returns
// the best match with its score. Keywords longer than five characters weigh
// more, favouring specific terms over generic ones. Ties keep the
// first-declared domain. A zero score means no domain matched.
func DetectDomain(brief string) (string, int) {
	lowered := strings.ToLower(brief)
	bestName := ""
	bestScore := 0
	for _, profile := range domainProfiles {
		score := 0
		for _, kw := range profile.keywords {
			n := strings.Count(lowered, kw)
			if n == 0 {
				continue
			}
			weight := genericKeywordWeight
			if utf8.RuneCountInString(kw) > 5 {
				weight = specificKeywordWeight
			}
			score += n * weight
		}
		if score > bestScore {
			bestName = profile.name
			bestScore = score
		}
	}
	return bestName, bestScore
}
