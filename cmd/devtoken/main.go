// Command devtoken prints a signed bearer token for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"workpay/internal/domain/auth"
)

func main() {
	userID := flag.String("user", "", "user id claim")
	role := flag.String("role", auth.RoleOperator, "role claim")
	company := flag.String("company", "", "company id claim")
	agency := flag.String("agency", "", "agency id claim")
	employee := flag.String("employee", "", "employee id claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if *userID == "" {
		log.Fatal("-user is required")
	}
	if !auth.ValidRole(*role) {
		log.Fatalf("unknown role %q", *role)
	}

	token, err := auth.GenerateToken(secret, auth.Claims{
		UserID:     *userID,
		Role:       *role,
		CompanyID:  *company,
		AgencyID:   *agency,
		EmployeeID: *employee,
	}, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
