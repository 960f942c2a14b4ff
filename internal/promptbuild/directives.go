package promptbuild

// CloneLead opens the clone-mode directive block. Exported so callers can
// assert which mode produced a prompt.
const CloneLead = "Reproduce the reference design exactly"

// ExpertLead opens the free-mode styling block.
const ExpertLead = "Act as an expert poster designer"

// cloneDirectives instruct the provider to copy an existing design while
// substituting only the user-supplied content. Order matters: the removal
// rule must come after the substitution rules.
var cloneDirectives = []string{
	CloneLead + ": keep the background, shapes, color palette, layout and typography style of the reference image unchanged.",
	"Replace only the textual content of the reference with the text supplied below, preserving each text block's position, alignment and relative size.",
	"Swap the photo and logo regions of the reference with the supplied user images, keeping their original placement and scale.",
	"If no replacement is supplied for a photo, logo or text element of the reference, remove that element cleanly and fill the area to match the surrounding design. Never leave empty frames or placeholder marks.",
}

// expertDirectives carry domain-tailored styling for free mode, keyed by the
// detected poster domain.
var expertDirectives = map[string]string{
	"church": ExpertLead + " specialized in church and gospel event posters: warm golden light, elegant serif or script display type, subtle rays or dove motifs, a reverent and joyful tone.",
	"restaurant": ExpertLead + " specialized in food and restaurant promotion: appetizing close-up imagery, rich contrast, generous whitespace around the dish, prices set in a clear hierarchy.",
	"concert": ExpertLead + " specialized in concert and festival artwork: bold display typography, saturated stage-light gradients, strong focal artist treatment, dates and venue in a clean block.",
	"event": ExpertLead + " specialized in event invitations: festive but balanced composition, clear date/time/venue hierarchy, decorative accents that do not compete with the headline.",
	"business": ExpertLead + " specialized in business promotion: clean grid, confident sans-serif type, one dominant brand color with neutral support, a single clear call to action.",
	"education": ExpertLead + " specialized in education and training posters: structured layout, approachable type, iconography suggesting learning and progression.",
	"beauty": ExpertLead + " specialized in beauty and salon visuals: soft light, refined pastel or monochrome palette, elegant thin typography, plenty of negative space.",
	"sport": ExpertLead + " specialized in sports posters: dynamic diagonal composition, high-energy contrast, condensed impact typography.",
	"realestate": ExpertLead + " specialized in real-estate marketing: crisp property imagery, trustworthy blue/neutral palette, key figures highlighted.",
	"travel": ExpertLead + " specialized in travel promotion: immersive destination imagery, airy layout, inviting warm accents.",
}

// defaultExpertDirective is used when no domain matched the brief.
const defaultExpertDirective = ExpertLead + ": strong visual hierarchy, one dominant focal point, harmonious palette, professional print-ready finish."

// typographicStyles is the pool the free mode draws one directive from, so
// repeated briefs vary in lettering.
var typographicStyles = []string{
	"Typography: pair a bold display headline with a light geometric sans-serif for details.",
	"Typography: elegant high-contrast serif headline, generous letter spacing on secondary lines.",
	"Typography: hand-lettered script accent for the key word, clean sans-serif everywhere else.",
	"Typography: condensed uppercase headline with tight leading, small-caps details.",
	"Typography: modern slab-serif headline, rounded sans-serif supporting text.",
	"Typography: oversized numerals for dates, minimal sans-serif for everything else.",
}

// compositionRules apply to every free-mode poster.
var compositionRules = []string{
	"Compose in distinct layers: background atmosphere, mid-ground subject, foreground text, so every element stays readable.",
	"Follow a 60/30/10 color ratio: one dominant tone, one support tone, one accent reserved for the call to action.",
	"Keep a safe margin around all text; never let letters touch the poster edge.",
}
