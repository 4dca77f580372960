package apidto

import (
	"time"

	"hackportal/pkg/team"
)

// Envelope - встраивается во все успешные ответы
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func OK(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

type Member struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Enrollment string `json:"enrollment"`
	Contact    string `json:"contact"`
	Gender     string `json:"gender"`
}

type Mentor struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Contact     string `json:"contact"`
	Designation string `json:"designation"`
}

type Team struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Leader           Member     `json:"leader"`
	Institute        string     `json:"institute"`
	Department       string     `json:"department"`
	Category         string     `json:"category"`
	Members          []Member   `json:"members"`
	Mentor           *Mentor    `json:"mentor,omitempty"`
	Locked           bool       `json:"locked"`
	NominationStatus string     `json:"nomination_status"`
	SelectionStatus  string     `json:"selection_status"`
	JuryPanelID      *string    `json:"jury_panel_id,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

// TeamPreview - то, что видит человек по ссылке-приглашению до входа
type TeamPreview struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Institute   string `json:"institute"`
	LeaderName  string `json:"leader_name"`
	RosterSize  int    `json:"roster_size"`
	HasCapacity bool   `json:"has_capacity"`
}

func FromTeam(t *team.Team) Team {
	if t == nil {
		return Team{}
	}

	members := make([]Member, 0, len(t.Members))
	for _, m := range t.Members {
		members = append(members, Member{
			UID:        m.UID,
			Name:       m.Name,
			Email:      m.Email,
			Enrollment: m.Enrollment,
			Contact:    m.Contact,
			Gender:     m.Gender,
		})
	}

	var mentor *Mentor
	if t.Mentor.Name != "" || t.Mentor.Email != "" {
		mentor = &Mentor{
			Name:        t.Mentor.Name,
			Email:       t.Mentor.Email,
			Contact:     t.Mentor.Contact,
			Designation: t.Mentor.Designation,
		}
	}

	var createdAtPtr *time.Time
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		createdAtPtr = &created
	}

	return Team{
		ID:               t.ID,
		Name:             t.Name,
		Leader:           Member{UID: t.Leader.UID, Name: t.Leader.Name, Email: t.Leader.Email},
		Institute:        t.Institute,
		Department:       t.Department,
		Category:         string(t.Category),
		Members:          members,
		Mentor:           mentor,
		Locked:           t.Locked,
		NominationStatus: string(t.NominationStatus),
		SelectionStatus:  string(t.SelectionStatus),
		JuryPanelID:      t.JuryPanelID,
		CreatedAt:        createdAtPtr,
	}
}

func FromTeams(teams []*team.Team) []Team {
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		out = append(out, FromTeam(t))
	}
	return out
}

func PreviewFromTeam(t *team.Team) TeamPreview {
	return TeamPreview{
		ID:          t.ID,
		Name:        t.Name,
		Institute:   t.Institute,
		LeaderName:  t.Leader.Name,
		RosterSize:  t.RosterSize(),
		HasCapacity: t.HasCapacity(),
	}
}
