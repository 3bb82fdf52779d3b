package http

// View is the screen a page renders. Each view has exactly one GET handler.
type View int

const (
	ViewLogin View = iota
	ViewDashboard
	ViewTrips
	ViewExpenses
	ViewReports
	ViewProfile
)

var views = []View{ViewLogin, ViewDashboard, ViewTrips, ViewExpenses, ViewReports, ViewProfile}

// navViews are the views listed in the menu once logged in.
var navViews = []View{ViewDashboard, ViewTrips, ViewExpenses, ViewReports, ViewProfile}

func (v View) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewTrips:
		return "trips"
	case ViewExpenses:
		return "expenses"
	case ViewReports:
		return "reports"
	case ViewProfile:
		return "profile"
	default:
		return "login"
	}
}

// Path is the URL the view is served on.
func (v View) Path() string {
	switch v {
	case ViewLogin, ViewDashboard:
		return "/"
	default:
		return "/" + v.String()
	}
}

func (v View) Title() string {
	switch v {
	case ViewDashboard:
		return "Painel"
	case ViewTrips:
		return "Viagens"
	case ViewExpenses:
		return "Despesas"
	case ViewReports:
		return "Relatórios"
	case ViewProfile:
		return "Perfil"
	default:
		return "Entrar"
	}
}
