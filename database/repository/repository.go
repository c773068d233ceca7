package repository

import (
	leadRepo "giftkit/database/repository/lead"
	userRepo "giftkit/database/repository/user"
)

// Re-export the UserRepository interface and constructor.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepo = userRepo.NewMongoUserRepo

// Re-export the LeadRepository interface, criteria and constructor.
type LeadRepository = leadRepo.LeadRepository

type LeadSearchCriteria = leadRepo.LeadSearchCriteria

var NewMongoLeadRepo = leadRepo.NewMongoLeadRepo
