package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, который клиент предъявляет для выпуска
//     нового access-токена; подпись сама по себе недостаточна — валидность
//     определяется записью в реестре (см. RefreshTokenRecord);
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
