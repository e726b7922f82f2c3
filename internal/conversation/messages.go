package conversation

// Reply texts shown to the prospective student.
const (
	msgWelcome             = "¡Hola! Estoy aquí para ayudarte a encontrar el plan de guitarra perfecto para ti o tu familia. 😊\nPara empezar, ¿para quién serían las clases y qué edad tiene esa persona (o personas)?"
	msgClarifyWhoAge       = "No logré entender tu respuesta. Por favor, responde de forma más clara: ¿para quién serían las clases y qué edad tiene esa persona?"
	msgAskAge              = "No pude identificar la edad de %s. ¿Podrías confirmármela?"
	msgMotivationAfterWho  = "¡Genial! Ahora, cuéntame: %s"
	msgMotivationAfterAge  = "¡Gracias! Ahora, cuéntame: %s"
	msgAgeNotANumber       = "Por favor, introduce la edad como un número (ej. '10 años')."
	msgAskAvailability     = "¿Y cuánto tiempo a la semana le pueden dedicar al aprendizaje?"
	msgProfileInvalid      = "No pude consolidar tu perfil. Reiniciemos la conversación."
	msgProposalUnavailable = "Tuve un problema al preparar tu propuesta. ¿Podrías contarme de nuevo cuánto tiempo a la semana le pueden dedicar al aprendizaje?"
	msgProposal            = "Analizando tu perfil para encontrar el plan ideal...\n\n🎸 Propuesta personalizada para ti:\n\n%s\n\n¿Te gustaría agendar una clase muestra gratuita? Responde de forma afirmativa o negativa:"
	msgAskYesNo            = "No estoy seguro de haberte entendido. ¿Te gustaría agendar una clase muestra gratuita? Responde sí o no."
	msgAskScheduling       = "¡Excelente! Por favor, danos tu número de teléfono, día y hora preferidos para contactarte y confirmar."
	msgDeclined            = "Entendido. Si cambias de opinión, no dudes en contactarnos. ¡Que tengas un excelente día!"
	msgSchedulingRetry     = "No pude extraer la información de agendamiento. Por favor, asegúrate de incluir tu número de teléfono (ej. 555-123-4567), día y hora."
	msgScheduled           = "¡Listo! Hemos recibido tu información. Te contactaremos pronto para confirmar los detalles de tu clase muestra."
	msgInvalidPhase        = "Fase de sesión no válida. Reinicia la conversación."
)

// Payload keys.
const (
	dataProfile         = "profile"
	dataRecommendedPlan = "recommended_plan"
	dataScheduling      = "scheduling"
)
