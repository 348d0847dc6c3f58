package line

// Canned reply texts.
const (
	unsupportedContentText = "Sorry, I can only process text messages."

	fallbackText = "Please use the menu to interact with me. Type \"menu\" to see available options."

	reportPromptText = "Please describe the fire you want to report: where is it and what do you see? " +
		"Send everything in a single message."

	reportAckText = "Thank you, your report has been received. Stay safe and follow instructions from local authorities."

	reportFailedText = "Sorry, I could not save your report right now. Please try again in a moment."

	helpText = "Wildfire Alert System commands:\n" +
		"• menu — show the main menu\n" +
		"• report — report a fire\n" +
		"• help — show this message\n\n" +
		"You will automatically receive a push message whenever a new alert is issued."

	safetyTipsText = "📋 Wildfire Safety Tips\n\n" +
		"1. If you see flames or heavy smoke, move away immediately and call emergency services.\n" +
		"2. Keep windows and doors closed when smoke is in the air.\n" +
		"3. Prepare an evacuation bag: documents, water, medication, flashlight.\n" +
		"4. Follow evacuation orders without delay — do not wait for the fire to get close.\n" +
		"5. Do not return home until authorities declare the area safe."

	noActiveAlertsText = "There are no active wildfire alerts right now. Stay safe!"
)
