// Package catalog holds the static reference data of the product: the closed
// set of subscription plans, the billable generators and the UI themes.
package catalog

import "github.com/oyasudev/oyasify/internal/models"

type Plan struct {
	ID         models.PlanID
	Name       string
	Price      float64
	PixCode    string
	Benefits   []string
	Unlimited  bool
	IsLifetime bool
}

type Generator struct {
	ID          string
	Name        string
	Icon        string
	Description string
	Category    string
	Price       float64
	PixCode     string
}

var plans = map[models.PlanID]Plan{
	models.PlanFree: {
		ID:       models.PlanFree,
		Name:     "free",
		Price:    0,
		Benefits: []string{"Acesso limitado", "Funcionalidades básicas"},
	},
	models.PlanLight: {
		ID:       models.PlanLight,
		Name:     "Oyasify Light",
		Price:    4.90,
		PixCode:  "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654044.905802BR5901N6001C62090505oyasu6304D171",
		Benefits: []string{"20 gerações por dia", "Sem anúncios", "Acesso básico"},
	},
	models.PlanPlus: {
		ID:        models.PlanPlus,
		Name:      "Oyasify Plus",
		Price:     7.90,
		PixCode:   "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654047.905802BR5901N6001C62090505oyasu6304DD8D",
		Benefits:  []string{"Gerações ilimitadas", "Acesso a todos os estilos", "Turbo mode", "Temas exclusivos"},
		Unlimited: true,
	},
	models.PlanUltra: {
		ID:         models.PlanUltra,
		Name:       "Oyasify Ultra",
		Price:      9.90,
		PixCode:    "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654049.905802BR5901N6001C62090505oyasu630416CA",
		Benefits:   []string{"Acesso Vitalício", "Tudo do Plus", "Prioridade máxima", "Hooks profissionais", "Letras mais ricas"},
		Unlimited:  true,
		IsLifetime: true,
	},
}

var generators = []Generator{
	{
		ID:          "music-idea",
		Name:        "Gerador de Ideia de Música",
		Icon:        "fa-lightbulb",
		Description: "Gere temas completos para músicas em qualquer estilo.",
		Category:    "Geral",
		Price:       0.40,
		PixCode:     "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654040.405802BR5901N6001C62090505oyasu6304D235",
	},
	{
		ID:          "viral-hook",
		Name:        "Gerador de Refrão Viral (Hook)",
		Icon:        "fa-fire",
		Description: "Gera refrões curtos e extremamente virais.",
		Category:    "TikTok",
		Price:       0.50,
		PixCode:     "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654040.505802BR5901N6001C62090505oyasu6304B500",
	},
	{
		ID:          "lyrics",
		Name:        "Gerador de Letra Completa",
		Icon:        "fa-file-audio",
		Description: "Gera músicas completas em qualquer estilo.",
		Category:    "Geral",
		Price:       0.60,
		PixCode:     "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654040.605802BR5901N6001C62090505oyasu63041C5F",
	},
	{
		ID:          "anime-rap",
		Name:        "Gerador Anime / Rap Geek",
		Icon:        "fa-ghost",
		Description: "Crie letras no universo geek e de animes.",
		Category:    "Anime & Geek Music",
		Price:       0.50,
		PixCode:     "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654040.505802BR5901N6001C62090505oyasu6304B500",
	},
	{
		ID:          "beat-concept",
		Name:        "Gerador de Beats / Conceitos",
		Icon:        "fa-drum",
		Description: "Receba ideias e conceitos para suas batidas.",
		Category:    "Beats",
		Price:       0.30,
		PixCode:     "00020126360014BR.GOV.BCB.PIX0114+557399147518152040000530398654040.305802BR5901N6001C62090505oyasu6304F79F",
	},
}

const DefaultTheme = "Ocean Dreams"

var themes = []string{"Cosmic Candy", "Forest Spirit", DefaultTheme, "Sakura Festival"}

// PlanByID resolves a plan from the closed catalog. The second return is
// false for unknown ids, including the empty string.
func PlanByID(id models.PlanID) (Plan, bool) {
	p, ok := plans[id]
	return p, ok
}

func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for _, id := range []models.PlanID{models.PlanFree, models.PlanLight, models.PlanPlus, models.PlanUltra} {
		out = append(out, plans[id])
	}
	return out
}

func GeneratorByID(id string) (Generator, bool) {
	for _, g := range generators {
		if g.ID == id {
			return g, true
		}
	}
	return Generator{}, false
}

func Generators() []Generator {
	out := make([]Generator, len(generators))
	copy(out, generators)
	return out
}

func ValidTheme(name string) bool {
	for _, t := range themes {
		if t == name {
			return true
		}
	}
	return false
}

func Themes() []string {
	out := make([]string, len(themes))
	copy(out, themes)
	return out
}
