package symptom

import (
	"net/http"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const (
	AppDisclaimer      = "MedGuide provides general health information only. This app does not replace professional medical advice, diagnosis, or treatment. Always seek a doctor's advice for serious concerns."
	FirstAidDisclaimer = "This guide is for basic first aid awareness only. Always seek professional medical help in emergencies."
)

var firstAidGuides = []types.FirstAidGuide{
	{
		Title: "CPR (Cardiopulmonary Resuscitation)",
		Steps: []string{
			"Check responsiveness and breathing.",
			"Call emergency services immediately.",
			"Push hard and fast in the center of the chest (100-120 compressions per minute).",
			"Give rescue breaths if trained (30 compressions : 2 breaths).",
		},
	},
	{
		Title: "Choking",
		Steps: []string{
			"Ask the person if they are choking.",
			"If unable to speak/cough, perform abdominal thrusts (Heimlich maneuver).",
			"If unresponsive, start CPR and call emergency services.",
		},
	},
	{
		Title: "Burns",
		Steps: []string{
			"Cool the burn with running water for at least 10 minutes.",
			"Do not apply ice, butter, or toothpaste.",
			"Cover with a clean, non-stick dressing.",
			"Seek medical help if severe.",
		},
	},
	{
		Title: "Severe Bleeding",
		Steps: []string{
			"Apply firm pressure with a clean cloth or bandage.",
			"Do not remove the cloth even if soaked; add more layers.",
			"Keep the injured limb elevated if possible.",
			"Call emergency services immediately.",
		},
	},
	{
		Title: "Fractures",
		Steps: []string{
			"Immobilize the injured area using a splint or sling.",
			"Do not try to straighten bones.",
			"Apply ice packs wrapped in cloth to reduce swelling.",
			"Seek urgent medical attention.",
		},
	},
}

// FirstAid returns a deep copy of the static guide list.
func FirstAid() types.FirstAidResponse {
	guides := make([]types.FirstAidGuide, len(firstAidGuides))
	for i, g := range firstAidGuides {
		guides[i] = types.FirstAidGuide{
			Title: g.Title,
			Steps: append([]string(nil), g.Steps...),
		}
	}
	return types.FirstAidResponse{
		Guides:     guides,
		Disclaimer: FirstAidDisclaimer + " " + AppDisclaimer,
	}
}

// FirstAidGuide godoc
// @Summary      Basic first-aid guides
// @Tags         symptoms
// @Produce      json
// @Success      200 {object} types.FirstAidResponse
// @Router       /first-aid [get]
func (h *SymptomHandler) FirstAidGuide(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, FirstAid())
}
