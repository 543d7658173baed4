package dto

type SubjectResponse struct {
	ID          string `json:"id" example:"sharia"`
	Name        string `json:"name" example:"شريعة إسلامية"`
	Description string `json:"description" example:"أحكام المواريث وتوزيع التركات."`
	Icon        string `json:"icon" example:"⚖️"`
}

type SubjectListResponse struct {
	Subjects []SubjectResponse `json:"subjects"`
}
