package services

import "fmt"

const (
	summaryMaxTokens   = 1000
	chatMaxTokens      = 800
	translateMaxTokens = 1500

	// Longer documents are cut before they are sent to the model.
	maxDocumentRunes = 12000

	fallbackSummary = "Unable to generate summary"
	fallbackAnswer  = "I apologize, but I could not process your question at this time."
)

func summarySystemPrompt(language string) string {
	return fmt.Sprintf(`You are an expert loan document analyzer. Extract key information from loan documents and provide a clear summary. Focus on: loan amount, interest rate, tenure, EMI, collateral, and important terms. Respond in %s.

Respond ONLY with a valid JSON object (no markdown, no code blocks) with the following structure:
{
  "summary": "A plain-language summary of the loan in %s",
  "loan_details": {
    "loan_amount": "Principal amount or null",
    "interest_rate": "Interest rate with its type or null",
    "tenure": "Loan tenure or null",
    "emi": "Monthly installment or null",
    "processing_fee": "Processing fee or null",
    "penalty_charges": "Late payment or penalty charges or null",
    "foreclosure_charges": "Foreclosure or prepayment charges or null"
  }
}`, language, language)
}

func summaryUserPrompt(text string) string {
	return "Analyze this loan document text and provide a summary: " + text
}

func chatSystemPrompt(language string) string {
	return fmt.Sprintf("You are LoanMitra, a helpful assistant specializing in loan documents and financial literacy for women. Answer questions clearly and provide educational content about loans, EMIs, interest rates, and financial planning. Always be supportive and encouraging. Respond in %s.", language)
}

func chatUserPrompt(question, context string) string {
	if context == "" {
		return "Question: " + question
	}
	return fmt.Sprintf("Context: %s\n\nQuestion: %s", context, question)
}

func translateSystemPrompt(language string) string {
	return fmt.Sprintf("You are a translator. Translate the user's text into %s. Keep numbers, currency amounts and percentages unchanged. Reply with the translated text only.", language)
}
