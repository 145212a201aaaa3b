package integration

import (
	"fmt"
	"time"
)

// TestCredentials generates unique test account credentials using timestamp
func TestCredentials(suffix string) (username, password string) {
	ts := time.Now().Unix()
	username = fmt.Sprintf("test-%d-%s", ts, suffix)
	password = "TestPassword123!"
	return
}
