package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	KindCredentials    = "credentials"
	KindMemberLeft     = "member_left"
	KindMentorAssigned = "mentor_assigned"
	KindSpocRequest    = "spoc_request"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "credentials"}}<p>Hello {{.Name}},</p>
<p>An account has been created for you as {{.Purpose}}.</p>
<p>Login: <b>{{.Email}}</b><br>Temporary password: <b>{{.Password}}</b></p>
<p>Sign in at <a href="{{.LoginURL}}">{{.LoginURL}}</a> and change your password.</p>{{end}}
{{define "member_left"}}<p>Hello {{.LeaderName}},</p>
<p>{{.MemberName}} ({{.MemberEmail}}) has left your team <b>{{.TeamName}}</b>.</p>{{end}}
{{define "mentor_assigned"}}<p>Hello {{.MentorName}},</p>
<p>You have been added as the mentor of team <b>{{.TeamName}}</b> ({{.Institute}}).</p>
<p>Team leader: {{.LeaderName}} ({{.LeaderEmail}})</p>{{end}}
{{define "spoc_request"}}<p>New SPOC access request.</p>
<p>Name: {{.Name}}<br>Email: {{.Email}}<br>Institute: {{.Institute}}<br>Contact: {{.Contact}}</p>
{{if .Note}}<p>{{.Note}}</p>{{end}}{{end}}
`))

type CredentialsData struct {
	Name     string
	Email    string
	Password string
	Purpose  string
	LoginURL string
}

type MemberLeftData struct {
	LeaderName  string
	MemberName  string
	MemberEmail string
	TeamName    string
}

type MentorAssignedData struct {
	MentorName  string
	TeamName    string
	Institute   string
	LeaderName  string
	LeaderEmail string
}

type SpocRequestData struct {
	Name      string
	Email     string
	Institute string
	Contact   string
	Note      string
}

func render(name, to, subject string, data interface{}) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

func CredentialsEmail(d CredentialsData) (Message, error) {
	return render(KindCredentials, d.Email, "Your hackathon portal account", d)
}

func MemberLeftEmail(to string, d MemberLeftData) (Message, error) {
	return render(KindMemberLeft, to, d.MemberName+" left "+d.TeamName, d)
}

func MentorAssignedEmail(to string, d MentorAssignedData) (Message, error) {
	return render(KindMentorAssigned, to, "You are now mentoring "+d.TeamName, d)
}

func SpocRequestEmail(to string, d SpocRequestData) (Message, error) {
	return render(KindSpocRequest, to, "SPOC request: "+d.Institute, d)
}
