package web

import (
	"strconv"

	"ideatracker/domain/core/entities"
	"ideatracker/domain/core/valueobjects"
	"ideatracker/pkg/utils"
)

type navData struct {
	Authenticated bool
	Email         string
}

// pageData is the model of every page. Pages read only the fields they need.
type pageData struct {
	Title string
	Nav   navData
	Error string

	// list
	Ideas []cardView
	Sorts []option

	// new and edit
	Form *formView

	// login and signup
	Email string
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type cardView struct {
	ID          string
	Title       string
	Description string
	Status      string
	Importance  string
	Created     string
	Color       string
}

type formView struct {
	Action      string
	IsNew       bool
	Idea        entities.Idea
	Importances []option
	Statuses    []option
}

func sortOptions(current entities.SortPolicy) []option {
	return []option{
		{Value: string(entities.SortByCreatedAt), Label: "Date Created", Selected: current == entities.SortByCreatedAt},
		{Value: string(entities.SortByImportance), Label: "Importance", Selected: current == entities.SortByImportance},
	}
}

func newCards(ideas []*entities.Idea) []cardView {
	cards := make([]cardView, 0, len(ideas))
	for _, idea := range ideas {
		cards = append(cards, cardView{
			ID:          idea.ID,
			Title:       idea.Title,
			Description: idea.Description,
			Status:      idea.Status.String(),
			Importance:  idea.Importance.Label(),
			Created:     displayDate(idea.CreatedAt),
			Color:       idea.Color,
		})
	}
	return cards
}

func displayDate(createdAt string) string {
	t, err := utils.ParseISO(createdAt)
	if err != nil {
		return createdAt
	}
	return t.Format("Jan 2, 2006")
}

func newFormView(action string, idea entities.Idea) *formView {
	view := &formView{
		Action: action,
		IsNew:  idea.IsNew(),
		Idea:   idea,
	}
	for _, imp := range valueobjects.Importances {
		view.Importances = append(view.Importances, option{
			Value:    strconv.Itoa(int(imp)),
			Label:    imp.Label(),
			Selected: imp == idea.Importance,
		})
	}
	for _, st := range valueobjects.Statuses {
		view.Statuses = append(view.Statuses, option{
			Value:    st.String(),
			Label:    st.String(),
			Selected: st == idea.Status,
		})
	}
	return view
}
