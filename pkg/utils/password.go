package utils

import "golang.org/x/crypto/bcrypt"

const minPasswordLen = 8

// HashPassword bcrypt 加密；超长密码（>72 字节）会返回错误
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

func PasswordLongEnough(pw string) bool { return len(pw) >= minPasswordLen }
