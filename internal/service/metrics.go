package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sendit_signups_total",
		Help: "Accounts registered.",
	})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendit_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	otpVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendit_otp_verifications_total",
		Help: "OTP verifications by outcome.",
	}, []string{"outcome"})

	conversationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendit_conversations_created_total",
		Help: "Conversations created by kind.",
	}, []string{"kind"})

	messagesAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sendit_messages_appended_total",
		Help: "Messages appended to existing threads.",
	})

	reactionsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sendit_reactions_applied_total",
		Help: "Reactions written, including overwrites.",
	})

	consistencyErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sendit_consistency_errors_total",
		Help: "Partially applied conversation writes detected after creation.",
	})
)
