package prompt

// builtins is the default prompt set. All conversation texts are German, as
// the product ships German-only.
var builtins = []Prompt{
	// Dog agent: conversation flow.
	{DogGreeting, "Hallo! Schön, dass Du da bist. Ich erkläre Dir Hundeverhalten aus der Hundeperspektive.", CategoryDog},
	{DogGreetingFollowup, "Erzähl mal, was ist denn bei euch so los?", CategoryDog},
	{DogAskForMore, "Magst Du mehr davon erfahren, warum ich mich so verhalte?", CategoryDog},
	{DogConfirmationQuery, "Soll ich Dir mehr dazu erzählen?", CategoryDog},
	{DogContextQuestion, "Gut, dann brauche ich noch ein paar Informationen. Wie kam es zu der Situation? Wer war dabei und wo ist es passiert?", CategoryDog},
	{DogExerciseQuestion, "Möchtest du eine Anleitung, wie Du mit Deinem Hund üben kannst, dass sich das verbessert?", CategoryDog},
	{DogContinueOrRestart, "Möchtest du ein weiteres Hundeverhalten eingeben?", CategoryDog},
	{DogDiagnosisIntro, "Danke. Aus der Hundeperspektive sieht das so aus:", CategoryDog},
	{DogDescribeMore, "Kannst Du das bitte etwas ausführlicher beschreiben?", CategoryDog},
	{DogAnotherBehavior, "Super! Beschreibe mir bitte ein anderes Verhalten.", CategoryDog},
	{DogRestartConfirmed, "Okay, wir starten neu. Was möchtest du mir erzählen?", CategoryDog},
	{DogRequestYesNo, "Bitte sag entweder 'Ja' oder 'Nein'.", CategoryDog},

	// Dog agent: errors.
	{DogNoMatchError, "Hmm, zu diesem Verhalten habe ich leider noch keine Antwort. Magst du ein anderes Hundeverhalten beschreiben?", CategoryError},
	{DogNotDogRelated, "Hm, das klingt für mich nicht nach typischem Hundeverhalten. Magst du es nochmal anders beschreiben?", CategoryError},
	{DogInvalidInput, "Das ist etwas kurz. Kannst du mir mehr Details geben?", CategoryError},
	{DogTechnicalError, "Entschuldige, es ist ein Problem aufgetreten. Lass uns neu starten.", CategoryError},
	{DogFallbackExercise, "Übe täglich 10 Minuten Impulskontrolle mit deinem Hund durch klare Kommandos und Belohnungen.", CategoryDog},

	// Companion agent: feedback collection.
	{CompanionFeedbackIntro, "Ich würde mich freuen, wenn du mir noch ein kurzes Feedback gibst.", CategoryCompanion},
	{CompanionFeedbackQ1, "Hast Du das Gefühl, dass Dir die Beratung bei Deinem Anliegen weitergeholfen hat?", CategoryCompanion},
	{CompanionFeedbackQ2, "Wie fandest Du die Sichtweise des Hundes – was hat Dir daran gefallen oder vielleicht irritiert?", CategoryCompanion},
	{CompanionFeedbackQ3, "Was denkst Du über die vorgeschlagene Übung – passt sie zu Deiner Situation?", CategoryCompanion},
	{CompanionFeedbackQ4, "Auf einer Skala von 0-10: Wie wahrscheinlich ist es, dass Du Wuffchat weiterempfiehlst?", CategoryCompanion},
	{CompanionFeedbackQ5, "Optional: Deine E-Mail oder Telefonnummer für eventuelle Rückfragen. Diese wird ausschließlich für Rückfragen zu deinem Feedback verwendet und nach 3 Monaten automatisch gelöscht.", CategoryCompanion},
	{CompanionFeedbackAck, "Danke.", CategoryCompanion},
	{CompanionFeedbackComplete, "Danke für Dein Feedback! 🐾", CategoryCompanion},
	{CompanionFeedbackNoSave, "Danke für Dein Feedback! Leider konnte ich es gerade nicht speichern – ich merke es mir trotzdem. 🐾", CategoryCompanion},
	{CompanionGeneralError, "Entschuldige, da ist etwas schiefgelaufen. Magst du es noch einmal versuchen?", CategoryError},

	// Generation prompts for the text generator.
	{GenDogSystem, "Du bist ein Hund und erklärst Hundeverhalten in der Ich-Perspektive. Sprich den Menschen mit Du an, bleib warmherzig und konkret, und erfinde keine Fakten.", CategoryGeneration},
	{GenDogPerspective, "Beschreibe aus der Hundeperspektive, wie sich folgendes Verhalten anfühlt.\n\nVerhalten: {{.symptom}}\nSchnelldiagnose: {{.match}}", CategoryGeneration},
	{GenInstinctAnalysis, "Analysiere, welcher Instinkt (jagd, rudel, territorial, sexual) das folgende Verhalten am besten erklärt. Nenne den Instinkt zuerst.\n\nVerhalten: {{.symptom}}\nKontext: {{.context}}", CategoryGeneration},
	{GenDogDiagnosis, "Erkläre aus der Hundeperspektive, warum ich mich so verhalte.\n\nVerhalten: {{.symptom}}\nKontext: {{.context}}\nPrimärer Instinkt: {{.instinct}}\nBeschreibung: {{.description}}", CategoryGeneration},
	{GenDogContentCheck, "Ist das Hundeverhalten? Antworte nur 'ja' oder 'nein':\n{{.input}}", CategoryGeneration},
}
