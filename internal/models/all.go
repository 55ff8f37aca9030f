package models

// All lists every table managed by AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&Freelancer{},
		&Skill{},
		&FreelancerSkill{},
		&Job{},
		&Proposal{},
		&Submission{},
		&Transaction{},
		&WalletTransaction{},
		&Withdrawal{},
		&Message{},
	}
}
