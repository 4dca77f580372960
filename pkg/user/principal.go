package user

// Principal - кто выполняет запрос, собирается из claims токена
type Principal struct {
	UID       string `json:"uid"`
	Role      Role   `json:"role"`
	Institute string `json:"institute"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ManagesInstitute - админ управляет всеми, SPOC только своим институтом
func (p Principal) ManagesInstitute(institute string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleSpoc && p.Institute != "" && p.Institute == institute
}
