package handlers

type registerRequest struct {
	IDToken string `json:"idToken" validate:"required"`
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=6,max=20"`
	Role    string `json:"role" validate:"required,oneof=student tutor"`
	City    string `json:"city" validate:"required,max=100"`
}

type loginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type updateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,min=6,max=20"`
	PhotoURL       *string `json:"photoUrl" validate:"omitempty,url"`
	City           *string `json:"city" validate:"omitempty,max=100"`
	TelegramChatID *int64  `json:"telegramChatId"`

	Qualifications  *string  `json:"qualifications" validate:"omitempty,max=1000"`
	ExperienceYears *int     `json:"experienceYears" validate:"omitempty,gte=0,lte=60"`
	Subjects        []string `json:"subjects" validate:"omitempty,max=20,dive,min=1,max=100"`
	ClassLevels     []string `json:"classLevels" validate:"omitempty,max=20,dive,min=1,max=100"`
	IsAvailable     *bool    `json:"isAvailable"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=student tutor admin"`
}

type tuitionRequest struct {
	Subject     string `json:"subject" validate:"required,max=100"`
	ClassLevel  string `json:"classLevel" validate:"required,max=50"`
	Location    string `json:"location" validate:"required,max=200"`
	Budget      int64  `json:"budget" validate:"required,gte=500"`
	Schedule    string `json:"schedule" validate:"required,max=200"`
	Mode        string `json:"mode" validate:"omitempty,oneof=online offline hybrid"`
	Description string `json:"description" validate:"max=1000"`
}

type updateTuitionRequest struct {
	Subject     *string `json:"subject" validate:"omitempty,min=1,max=100"`
	ClassLevel  *string `json:"classLevel" validate:"omitempty,min=1,max=50"`
	Location    *string `json:"location" validate:"omitempty,min=1,max=200"`
	Budget      *int64  `json:"budget" validate:"omitempty,gte=500"`
	Schedule    *string `json:"schedule" validate:"omitempty,min=1,max=200"`
	Mode        *string `json:"mode" validate:"omitempty,oneof=online offline hybrid"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type applicationRequest struct {
	TuitionID      int64  `json:"tuitionId" validate:"required,gt=0"`
	Qualifications string `json:"qualifications" validate:"required,max=1000"`
	Experience     string `json:"experience" validate:"required,max=1000"`
	ExpectedSalary int64  `json:"expectedSalary" validate:"required,gte=500"`
}

type updateApplicationRequest struct {
	Qualifications string `json:"qualifications" validate:"max=1000"`
	Experience     string `json:"experience" validate:"max=1000"`
	ExpectedSalary *int64 `json:"expectedSalary" validate:"omitempty,gte=500"`
}

type applicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Approved Rejected"`
}

type applicationRefRequest struct {
	ApplicationID int64 `json:"applicationId" validate:"required,gt=0"`
}

type manualPaymentRequest struct {
	ApplicationID int64  `json:"applicationId" validate:"required,gt=0"`
	Method        string `json:"paymentMethod" validate:"omitempty,oneof=bank_transfer mobile_banking manual"`
}

type reviewRequest struct {
	TutorID   int64  `json:"tutorId" validate:"required,gt=0"`
	TuitionID int64  `json:"tuitionId" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment" validate:"max=500"`
}

type messageRequest struct {
	TuitionID  int64  `json:"tuitionId" validate:"required,gt=0"`
	ReceiverID int64  `json:"receiverId" validate:"required,gt=0"`
	Content    string `json:"content" validate:"required,max=1000"`
}

type bookmarkRequest struct {
	Type     string `json:"type" validate:"required,oneof=tutor tuition"`
	TargetID int64  `json:"targetId" validate:"required,gt=0"`
}
