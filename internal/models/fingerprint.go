package models

// Fingerprint — отпечаток устройства, зафиксированный при выпуске
// refresh-токена: User-Agent и IP-адрес клиента.
//
// Часть клиентов не присылает User-Agent (или IP не удаётся определить),
// поэтому отпечаток может быть неполным. Неполный отпечаток считается
// «неопознаваемым»: сверка на аномалию выполняется только когда обе стороны
// (сохранённая и текущая) полные — см. Fingerprint.Matches.
type Fingerprint struct {
	UserAgent string `bson:"user_agent,omitempty"`
	IP        string `bson:"ip,omitempty"`
}

// Known сообщает, полон ли отпечаток (есть и User-Agent, и IP).
func (f Fingerprint) Known() bool {
	return f.UserAgent != "" && f.IP != ""
}

// Matches выполняет тотальную сверку пары отпечатков.
// Возвращает:
//
//	(true, true)  — оба отпечатка полные и совпадают;
//	(false, true) — оба полные, но отличается UA и/или IP (аномалия);
//	(_, false)    — хотя бы одна сторона неполная, судить нельзя.
func (f Fingerprint) Matches(current Fingerprint) (match bool, judged bool) {
	if !f.Known() || !current.Known() {
		return false, false
	}

	return f.UserAgent == current.UserAgent && f.IP == current.IP, true
}
