package team

import (
	"strings"

	"hackportal/pkg/user"
)

// MemberFromUser - единственное место, где профиль проецируется в снапшот участника
func MemberFromUser(u *user.User) Member {
	return Member{
		UID:        u.UID,
		Name:       u.Name,
		Email:      u.Email,
		Enrollment: u.Enrollment,
		Contact:    u.Contact,
		Gender:     u.Gender,
	}
}

func LeaderFromUser(u *user.User) Leader {
	return Leader{
		UID:   u.UID,
		Name:  u.Name,
		Email: u.Email,
	}
}

func (t *Team) RosterSize() int {
	return 1 + len(t.Members)
}

func (t *Team) HasCapacity() bool {
	return len(t.Members) < MaxMembers
}

func (t *Team) IndexOfMember(uid string) int {
	for i, m := range t.Members {
		if m.UID == uid {
			return i
		}
	}
	return -1
}

func (t *Team) IndexOfEmail(email string) int {
	for i, m := range t.Members {
		if strings.EqualFold(m.Email, email) {
			return i
		}
	}
	return -1
}

// Contains - лидер тоже считается
func (t *Team) Contains(uid string) bool {
	return t.Leader.UID == uid || t.IndexOfMember(uid) >= 0
}

// RosterUIDs - лидер первым, дальше участники в порядке вступления
func (t *Team) RosterUIDs() []string {
	out := make([]string, 0, t.RosterSize())
	if t.Leader.UID != "" {
		out = append(out, t.Leader.UID)
	}
	for _, m := range t.Members {
		out = append(out, m.UID)
	}
	return out
}

// appendMember проверяет вместимость и дубликаты, порядок сохраняется
func (t *Team) appendMember(m Member) error {
	if t.Contains(m.UID) {
		return ErrAlreadyInTeam
	}
	if !t.HasCapacity() {
		return ErrTeamFull
	}
	t.Members = append(t.Members, m)
	return nil
}

func (t *Team) removeAt(idx int) Member {
	removed := t.Members[idx]
	members := make([]Member, 0, len(t.Members)-1)
	members = append(members, t.Members[:idx]...)
	members = append(members, t.Members[idx+1:]...)
	t.Members = members
	return removed
}

// removeUIDs возвращает количество реально убранных снапшотов
func (t *Team) removeUIDs(uids []string) int {
	drop := make(map[string]struct{}, len(uids))
	for _, id := range uids {
		drop[id] = struct{}{}
	}

	members := make([]Member, 0, len(t.Members))
	for _, m := range t.Members {
		if _, ok := drop[m.UID]; ok {
			continue
		}
		members = append(members, m)
	}

	removed := len(t.Members) - len(members)
	t.Members = members
	return removed
}
